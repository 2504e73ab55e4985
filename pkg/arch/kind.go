package arch

import "fmt"

// Kind identifies what an archive contains. The numeric value is written
// into the archive header (low 24 bits of the file id) and read back by
// embedded applications, so released values must never be renumbered.
type Kind uint32

const (
	KindApplication Kind = iota
	KindSecondaryBoot
	KindInitialFileTransfer
	KindLoader
	KindIMEI
	KindCustomerConfig
	KindZeroCode
	KindMassStorage
	KindAudioConfig
	KindCompatibilityTag
	KindPlatformConfig
	KindSecurityConfig
	KindUnlock
	KindCalibration
	KindCalibrationPatch
	KindSSLCertificate
	KindDeviceConfig
	KindProductConfig
	KindRobustnessCounter
	KindFlashDisk
	KindWebUIPackage
	KindSecondaryBoot3
	KindActivationCode
	KindActivationData

	// NumKinds is the number of registered archive kinds.
	NumKinds = iota
)

var kindNames = [NumKinds]string{
	"Application",
	"SecondaryBoot",
	"InitialFileTransfer",
	"Loader",
	"IMEI",
	"CustomerConfig",
	"ZeroCode",
	"MassStorage",
	"AudioConfig",
	"CompatibilityTag",
	"PlatformConfig",
	"SecurityConfig",
	"Unlock",
	"Calibration",
	"CalibrationPatch",
	"SSLCertificate",
	"DeviceConfig",
	"ProductConfig",
	"RobustnessCounter",
	"FlashDisk",
	"WebUIPackage",
	"SecondaryBoot3",
	"ActivationCode",
	"ActivationData",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(0x%06x)", uint32(k))
}
