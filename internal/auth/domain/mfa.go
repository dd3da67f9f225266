package domain

// MFASetup is handed to the user exactly once when MFA setup runs. The
// backup codes are stored only as fingerprints afterwards.
type MFASetup struct {
	Secret          string
	ProvisioningURI string
	QRCode          string // PNG data URL of ProvisioningURI
	BackupCodes     []string
}

// MFAFactor names the factor that satisfied an MFA check.
type MFAFactor string

const (
	MFAFactorNone   MFAFactor = ""
	MFAFactorTOTP   MFAFactor = "totp"
	MFAFactorBackup MFAFactor = "backup_code"
)
