package arch

import "fmt"

// KeySet names the authentication scheme (key material and trust root)
// that applies to an archive kind.
type KeySet int

const (
	KeySetDeviceRoot KeySet = iota
	KeySetDeviceOEM
	KeySetOEMFactory
	KeySetNone     // kind is updated with no authentication
	KeySetExternal // authentication happens through an external mechanism
	KeySetDeviceFactory
	KeySetDeviceDebug
	KeySetOEMField
	KeySetDeviceConfig
	KeySetActivation
	KeySetSelfEncryption
)

func (k KeySet) String() string {
	switch k {
	case KeySetDeviceRoot:
		return "device-root"
	case KeySetDeviceOEM:
		return "device-oem"
	case KeySetOEMFactory:
		return "oem-factory"
	case KeySetNone:
		return "none"
	case KeySetExternal:
		return "external"
	case KeySetDeviceFactory:
		return "device-factory"
	case KeySetDeviceDebug:
		return "device-debug"
	case KeySetOEMField:
		return "oem-field"
	case KeySetDeviceConfig:
		return "device-config"
	case KeySetActivation:
		return "activation"
	case KeySetSelfEncryption:
		return "self-encryption"
	default:
		return fmt.Sprintf("KeySet(%d)", int(k))
	}
}

// PPIDCheck states which platform/product identifier an archive embeds
// and must be checked against the device before a write is permitted.
type PPIDCheck int

const (
	PPIDNone     PPIDCheck = iota // file does not embed a PPID
	PPIDDefault                   // file embeds the default PPID
	PPIDPlatform                  // file PPID is explicitly a PFID
	PPIDProduct                   // file PPID is explicitly a PCID
)

// FileType distinguishes executable images from plain data archives.
type FileType int

const (
	FileTypeExecutable FileType = iota
	FileTypeData
)

// Property is the immutable per-kind policy record.
type Property struct {
	Acronym         string    // short display string used by external tools, may be empty
	ID              Kind      // kind id written into the archive header
	KeySet          KeySet    // key set used to sign the archive
	PPID            PPIDCheck // which PPID is embedded in the file, if any
	WriteDuringAuth bool      // overwrite target during authentication, previous copy not preserved
	Type            FileType
	KeepWrappedInfo bool // wrapper metadata persists in the file system after update
	IsPatch         bool // never written directly, only applied as a patch
	IgnoreMagic     bool // header tag validation is bypassed for this kind
}

// properties is the fixed per-kind policy table, indexed by Kind.
// CustomerConfig, ZeroCode, MassStorage and WebUIPackage intentionally
// carry no acronym.
var properties = [NumKinds]Property{
	KindApplication:         {"MDM", KindApplication, KeySetDeviceOEM, PPIDNone, true, FileTypeExecutable, true, false, false},
	KindSecondaryBoot:       {"BT2", KindSecondaryBoot, KeySetDeviceRoot, PPIDNone, false, FileTypeExecutable, true, false, false},
	KindInitialFileTransfer: {"IFT", KindInitialFileTransfer, KeySetDeviceOEM, PPIDNone, false, FileTypeExecutable, true, false, false},
	KindLoader:              {"LDR", KindLoader, KeySetDeviceOEM, PPIDNone, false, FileTypeExecutable, true, false, false},
	KindIMEI:                {"IMEI", KindIMEI, KeySetOEMFactory, PPIDDefault, false, FileTypeData, true, false, false},
	KindCustomerConfig:      {"", KindCustomerConfig, KeySetOEMFactory, PPIDDefault, false, FileTypeData, true, false, false},
	KindZeroCode:            {"", KindZeroCode, KeySetNone, PPIDNone, true, FileTypeData, true, false, false},
	KindMassStorage:         {"", KindMassStorage, KeySetDeviceOEM, PPIDNone, false, FileTypeExecutable, true, false, false},
	KindAudioConfig:         {"AUDIOCFG", KindAudioConfig, KeySetNone, PPIDNone, false, FileTypeData, true, false, false},
	KindCompatibilityTag:    {"COMPAT", KindCompatibilityTag, KeySetNone, PPIDNone, false, FileTypeData, true, false, false},
	KindPlatformConfig:      {"PLATCFG", KindPlatformConfig, KeySetNone, PPIDNone, false, FileTypeData, false, false, false},
	KindSecurityConfig:      {"SECCFG", KindSecurityConfig, KeySetDeviceFactory, PPIDDefault, false, FileTypeData, true, false, false},
	KindUnlock:              {"UNLOCK", KindUnlock, KeySetDeviceDebug, PPIDProduct, false, FileTypeData, true, false, false},
	KindCalibration:         {"CALIB", KindCalibration, KeySetOEMFactory, PPIDNone, false, FileTypeData, false, false, false},
	KindCalibrationPatch:    {"CALIB_PATCH", KindCalibrationPatch, KeySetOEMFactory, PPIDNone, false, FileTypeData, false, true, false},
	KindSSLCertificate:      {"SSL_CERT", KindSSLCertificate, KeySetNone, PPIDNone, false, FileTypeData, false, true, false},
	KindDeviceConfig:        {"DEVICECFG", KindDeviceConfig, KeySetOEMFactory, PPIDDefault, false, FileTypeData, true, false, false},
	KindProductConfig:       {"PRODUCTCFG", KindProductConfig, KeySetOEMField, PPIDNone, false, FileTypeData, true, false, false},
	KindRobustnessCounter:   {"ROBCOUNTER", KindRobustnessCounter, KeySetDeviceConfig, PPIDDefault, false, FileTypeData, true, false, false},
	KindFlashDisk:           {"FLASHDISK", KindFlashDisk, KeySetNone, PPIDNone, true, FileTypeData, false, false, false},
	KindWebUIPackage:        {"", KindWebUIPackage, KeySetNone, PPIDNone, false, FileTypeData, false, true, false},
	KindSecondaryBoot3:      {"BT3", KindSecondaryBoot3, KeySetDeviceOEM, PPIDNone, false, FileTypeExecutable, true, false, false},
	KindActivationCode:      {"ACT", KindActivationCode, KeySetDeviceOEM, PPIDNone, false, FileTypeExecutable, true, false, false},
	KindActivationData:      {"ACT_DATA", KindActivationData, KeySetOEMFactory, PPIDDefault, false, FileTypeData, true, false, false},
}

// PropertyIMEINoAuth is the provisioning-time variant of the IMEI record.
// Factory flows that write the IMEI before key material is fused use this
// record in place of the authenticated table entry.
var PropertyIMEINoAuth = Property{
	Acronym:         "IMEI",
	ID:              KindIMEI,
	KeySet:          KeySetNone,
	PPID:            PPIDNone,
	Type:            FileTypeData,
	KeepWrappedInfo: true,
}

// Registry is the process-wide archive kind table. Build it once with
// NewRegistry; it is immutable afterwards and safe for concurrent reads.
type Registry struct {
	props [NumKinds]Property
}

// NewRegistry builds the registry from the fixed property table.
func NewRegistry() *Registry {
	return &Registry{props: properties}
}

// Lookup resolves the property record for an archive kind id. An
// unrecognized id is a recoverable condition reported as
// ErrUnknownArchiveKind, never a crash.
func (r *Registry) Lookup(id Kind) (Property, error) {
	if int(id) >= len(r.props) {
		return Property{}, fmt.Errorf("%w: 0x%06x", ErrUnknownArchiveKind, uint32(id))
	}
	return r.props[id], nil
}

// Acronym returns the short display string for a kind, empty for kinds
// with no external-tool exposure.
func (r *Registry) Acronym(id Kind) string {
	if int(id) >= len(r.props) {
		return ""
	}
	return r.props[id].Acronym
}

// Properties returns a copy of the whole table, in kind order.
func (r *Registry) Properties() []Property {
	out := make([]Property, len(r.props))
	copy(out, r.props[:])
	return out
}
