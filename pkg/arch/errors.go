package arch

import "errors"

var (
	// Decode errors - structural, reported by the header codec.
	ErrHeaderTooShort     = errors.New("archive header too short")
	ErrBadMagic           = errors.New("unrecognized archive header tag")
	ErrLengthMismatch     = errors.New("archive header length mismatch")
	ErrUnsupportedZipMode = errors.New("unsupported compression mode")
	ErrBadZipVersion      = errors.New("unrecognized compression sub-header version")
	ErrZipHeaderTooShort  = errors.New("compression sub-header too short")
	ErrTruncatedArchive   = errors.New("archive payload truncated")
	ErrKindOutOfRange     = errors.New("archive kind id exceeds 24-bit range")

	// Policy errors - reported by the resolver.
	ErrUnknownArchiveKind    = errors.New("unsupported archive kind")
	ErrChecksumMismatch      = errors.New("archive header checksum mismatch")
	ErrPPIDMismatch          = errors.New("embedded platform identifier mismatch")
	ErrAuthenticationFailed  = errors.New("archive authentication failed")
	ErrAuthenticationTimeout = errors.New("archive authentication timed out")

	// Dispatch errors - reported by the patch/write dispatcher.
	ErrPatchOnlyViolation     = errors.New("archive kind is patch-only, direct write refused")
	ErrPatchApplicationFailed = errors.New("patch application failed")
	ErrStagingConflict        = errors.New("target image is being staged by another process")

	// Boot-map accessor errors.
	ErrBootRegionTooShort = errors.New("boot region too short")
)
