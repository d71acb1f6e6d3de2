package mailprobe

import "errors"

var (
	// ErrUnknownLevel is returned when Validate is called with a level
	// other than LevelBasic or LevelAdvanced.
	ErrUnknownLevel = errors.New("mailprobe: unknown validation level")

	// ErrInvalidSMTPOptions is returned when SMTP options are supplied
	// with an empty HeloDomain or MailFrom.
	ErrInvalidSMTPOptions = errors.New("mailprobe: SMTPOptions requires HeloDomain and MailFrom")
)
