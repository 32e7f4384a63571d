package invite

import "errors"

var (
	// Local validation: never reaches the network.
	ErrInvalidEntries = errors.New("invalid email addresses present")
	ErrNoValidEmails  = errors.New("no valid emails to invite")
	ErrEmptyEmail     = errors.New("email is empty")
	ErrDuplicateEmail = errors.New("email already added")
	ErrUnknownRole    = errors.New("unknown role")

	// File import.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUnreadableFile      = errors.New("file could not be read")
	ErrNoEmailsFound       = errors.New("no emails found")

	// Delivery and download.
	ErrSendFailed    = errors.New("failed to send invitations")
	ErrTemplateBuild = errors.New("failed to build template")

	ErrEntryNotFound        = errors.New("entry not found")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrSessionBusy          = errors.New("session is busy")
	ErrSessionNotFound      = errors.New("session not found")
)

// Kind groups errors by how they are presented to the user.
type Kind int

const (
	KindUnknown Kind = iota
	KindLocalValidation
	KindFileType
	KindParse
	KindSubmission
	KindDownload
	KindNotFound
	KindConflict
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindLocalValidation: "local_validation",
	KindFileType:        "file_type",
	KindParse:           "parse",
	KindSubmission:      "submission",
	KindDownload:        "download",
	KindNotFound:        "not_found",
	KindConflict:        "conflict",
}

func (k Kind) String() string { return kindNames[k] }

var kindTable = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidEntries, KindLocalValidation},
	{ErrNoValidEmails, KindLocalValidation},
	{ErrEmptyEmail, KindLocalValidation},
	{ErrDuplicateEmail, KindLocalValidation},
	{ErrUnknownRole, KindLocalValidation},
	{ErrUnsupportedFileType, KindFileType},
	{ErrUnreadableFile, KindParse},
	{ErrNoEmailsFound, KindParse},
	{ErrSendFailed, KindSubmission},
	{ErrTemplateBuild, KindDownload},
	{ErrEntryNotFound, KindNotFound},
	{ErrSessionNotFound, KindNotFound},
	{ErrSubmissionInProgress, KindConflict},
	{ErrSessionBusy, KindConflict},
}

// KindOf classifies err by the first sentinel it wraps.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, e := range kindTable {
		if errors.Is(err, e.err) {
			return e.kind
		}
	}
	return KindUnknown
}
