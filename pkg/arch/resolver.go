package arch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/modempack/pkg/logging"
)

// VerifyRequest hands the resolved authentication parameters to the
// external crypto provider. The engine never hashes or verifies
// signatures itself.
type VerifyRequest struct {
	KeySet   KeySet
	KeyIndex uint32
	SignType uint32
	Header   []byte // encoded TLV region
	Payload  []byte // data region including any trailing signature
}

// Verifier is the external crypto provider contract. Verify blocks until
// a verdict is reached or ctx expires; a nil error means the archive is
// authentic.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) error
}

// DeviceIdentity holds the identifiers an archive's embedded PPID is
// checked against, per the property record's PPID requirement.
type DeviceIdentity struct {
	PPID string // default embedded identifier
	PFID string // platform identifier
	PCID string // product identifier
}

// Resolution is the resolver's accepted verdict: the decoded header plus
// the policy record everything downstream dispatches on.
type Resolution struct {
	Header   FileHeader
	Kind     Kind
	Property Property
	ZipMode  ZipMode
}

// ResolverConfig carries the resolver collaborators. Zero values get
// safe defaults; a Verifier is only required when authenticated kinds
// are processed.
type ResolverConfig struct {
	Checksummer Checksummer
	Verifier    Verifier
	Identity    DeviceIdentity
	AuthTimeout time.Duration // bound on a single Verify call, 0 means none
	Logger      hclog.Logger
	Metrics     Metrics
}

// Resolver determines the validation obligations for a decoded archive
// and enforces them before any write or patch action is permitted.
type Resolver struct {
	reg         *Registry
	codec       Codec
	sum         Checksummer
	verifier    Verifier
	identity    DeviceIdentity
	authTimeout time.Duration
	logger      hclog.Logger
	metrics     Metrics
}

// NewResolver builds a resolver over the given registry and codec.
func NewResolver(reg *Registry, codec Codec, cfg ResolverConfig) *Resolver {
	if cfg.Checksummer == nil {
		cfg.Checksummer = NewWordSum(codec.Order())
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default("resolver")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoopMetrics{}
	}
	return &Resolver{
		reg:         reg,
		codec:       codec,
		sum:         cfg.Checksummer,
		verifier:    cfg.Verifier,
		identity:    cfg.Identity,
		authTimeout: cfg.AuthTimeout,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Resolve validates raw archive bytes against the registry-derived policy
// and returns the resolution on acceptance. embeddedPPID is the
// platform/product identifier carried by the archive wrapper, empty when
// the transport did not extract one.
//
// The first failure wins and is returned as a specific error kind; no
// speculative continuation is attempted. Resolve does not mutate the
// archive or the registry, so resolving the same bytes twice yields the
// same verdict.
func (r *Resolver) Resolve(ctx context.Context, raw []byte, embeddedPPID string) (*Resolution, error) {
	hdr, err := r.codec.Decode(raw)
	badMagic := err != nil && errors.Is(err, ErrBadMagic)
	if err != nil && !badMagic {
		return nil, err
	}

	kind, mode, err := UnpackFileID(hdr.FileID)
	if err != nil {
		return nil, err
	}

	prop, lerr := r.reg.Lookup(kind)
	if lerr != nil {
		r.metrics.IncResolved(kind.String(), "unknown_kind")
		return nil, lerr
	}

	if badMagic {
		if !prop.IgnoreMagic {
			r.metrics.IncResolved(kind.String(), "bad_magic")
			return nil, err
		}
		// Tag validation bypassed; the declared length must still be
		// self-consistent with the fixed layout.
		if hdr.Length != HeaderSize {
			return nil, fmt.Errorf("%w: declared %d, layout requires %d", ErrLengthMismatch, hdr.Length, HeaderSize)
		}
		r.logger.Debug("header tag bypassed by kind policy", "kind", kind.String(), "tag", fmt.Sprintf("0x%08x", hdr.Tag))
	}

	if err := r.checkChecksum(hdr); err != nil {
		r.metrics.IncResolved(kind.String(), "checksum_failure")
		return nil, err
	}

	if prop.KeySet != KeySetNone {
		if err := r.authenticate(ctx, hdr, prop, raw); err != nil {
			verdict := "authentication_failed"
			if errors.Is(err, ErrAuthenticationTimeout) {
				verdict = "authentication_timeout"
			}
			r.metrics.IncResolved(kind.String(), verdict)
			return nil, err
		}
	}

	if err := r.checkPPID(prop, embeddedPPID); err != nil {
		r.metrics.IncResolved(kind.String(), "ppid_mismatch")
		return nil, err
	}

	r.logger.Debug("archive accepted", "kind", kind.String(), "zip_mode", mode.String(), "key_set", prop.KeySet.String())
	r.metrics.IncResolved(kind.String(), "accepted")

	return &Resolution{
		Header:   *hdr,
		Kind:     kind,
		Property: prop,
		ZipMode:  mode,
	}, nil
}

// checkChecksum recomputes the TLV checksum with the checksum field
// zeroed and compares it to the stored value.
func (r *Resolver) checkChecksum(hdr *FileHeader) error {
	cp := *hdr
	cp.Checksum = 0
	got := r.sum.Sum(r.codec.Encode(&cp))
	if got != hdr.Checksum {
		return fmt.Errorf("%w: computed 0x%08x, header 0x%08x", ErrChecksumMismatch, got, hdr.Checksum)
	}
	return nil
}

// authenticate hands the key set, key index and sign type to the crypto
// provider and maps its verdict. The Verify call is the only suspension
// point in the resolver.
func (r *Resolver) authenticate(ctx context.Context, hdr *FileHeader, prop Property, raw []byte) error {
	if r.verifier == nil {
		return fmt.Errorf("%w: key set %s requires a verifier, none configured", ErrAuthenticationFailed, prop.KeySet)
	}

	payload, err := r.codec.Payload(raw, hdr)
	if err != nil {
		return err
	}

	vctx := ctx
	if r.authTimeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, r.authTimeout)
		defer cancel()
	}

	req := VerifyRequest{
		KeySet:   prop.KeySet,
		KeyIndex: hdr.KeyIndex,
		SignType: hdr.SignType,
		Header:   r.codec.Encode(hdr),
		Payload:  payload,
	}

	if err := r.verifier.Verify(vctx, req); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || vctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %v", ErrAuthenticationTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return nil
}

// checkPPID compares the archive's embedded identifier against the
// device identity selected by the property's PPID requirement.
func (r *Resolver) checkPPID(prop Property, embedded string) error {
	var expected string
	switch prop.PPID {
	case PPIDNone:
		return nil
	case PPIDDefault:
		expected = r.identity.PPID
	case PPIDPlatform:
		expected = r.identity.PFID
	case PPIDProduct:
		expected = r.identity.PCID
	}
	if embedded != expected {
		return fmt.Errorf("%w: archive %q, device %q", ErrPPIDMismatch, embedded, expected)
	}
	return nil
}
