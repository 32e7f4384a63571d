package invite

import (
	"errors"
	"fmt"
)

// Variant selects how a notice is styled.
type Variant string

const (
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

// Notice is a transient message shown to the user after an action.
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// PastedNotice reports addresses taken from the clipboard. It returns nil
// when nothing was added.
func PastedNotice(added int) *Notice {
	if added == 0 {
		return nil
	}
	return &Notice{
		Title:       "Emails detected",
		Description: fmt.Sprintf("Added %s from clipboard.", plural(added, "email")),
		Variant:     VariantSuccess,
	}
}

// ImportedNotice reports the outcome of a spreadsheet import.
func ImportedNotice(r ImportReport) *Notice {
	return &Notice{
		Title: "File processed successfully",
		Description: fmt.Sprintf("Found %s and %s.",
			plural(r.Valid, "valid email"), plural(r.Invalid, "invalid email")),
		Variant: VariantSuccess,
	}
}

// SentNotice reports a successful submission.
func SentNotice(r SendResult) *Notice {
	return &Notice{
		Title:       "Invitations sent successfully",
		Description: fmt.Sprintf("Sent %s.", plural(r.Count, "invitation")),
		Variant:     VariantSuccess,
	}
}

// TemplateNotice reports a template download.
func TemplateNotice() *Notice {
	return &Notice{
		Title:       "Template downloaded",
		Description: "The template spreadsheet has been downloaded successfully.",
		Variant:     VariantSuccess,
	}
}

// ErrorNotice turns err into a user-facing notice. Internal detail is never
// included in the description.
func ErrorNotice(err error) *Notice {
	n := &Notice{Variant: VariantDestructive}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidEntries):
		n.Title = "Invalid emails detected"
		n.Description = "Please correct or remove the invalid email addresses before sending invitations."
	case errors.Is(err, ErrNoValidEmails):
		n.Title = "No valid emails to invite"
		n.Description = "Please add at least one valid email address."
	case errors.Is(err, ErrSubmissionInProgress):
		n.Title = "Invitations are being sent"
		n.Description = "Please wait for the current submission to finish."
	case errors.Is(err, ErrUnsupportedFileType):
		n.Title = "Invalid file type"
		n.Description = "Please upload a CSV or Excel file (.csv, .xlsx, .xls)"
	case errors.Is(err, ErrNoEmailsFound):
		n.Title = "No emails found"
		n.Description = "No valid email addresses were found in the uploaded file."
	case errors.Is(err, ErrUnreadableFile):
		n.Title = "Error processing file"
		n.Description = "There was an error processing your file. Please try again."
	case errors.Is(err, ErrSendFailed):
		n.Title = "Failed to send invitations"
		n.Description = "Please try again later."
	case errors.Is(err, ErrTemplateBuild):
		n.Title = "Download failed"
		n.Description = "Failed to download the template. Please try again."
	case errors.Is(err, ErrDuplicateEmail):
		n.Title = "Email already added"
		n.Description = "This email address is already in the list."
	case errors.Is(err, ErrEmptyEmail):
		n.Title = "Email is empty"
		n.Description = "Enter an email address or remove the entry."
	case errors.Is(err, ErrUnknownRole):
		n.Title = "Unknown role"
		n.Description = "Choose Admin, Member, or Guest."
	case errors.Is(err, ErrEntryNotFound):
		n.Title = "Email not found"
		n.Description = "The email address was already removed."
	case errors.Is(err, ErrSessionNotFound):
		n.Title = "Session expired"
		n.Description = "Reload the page to start a new invitation."
	case errors.Is(err, ErrSessionBusy):
		n.Title = "Please wait"
		n.Description = "Another change is still being applied."
	default:
		n.Title = "Something went wrong"
		n.Description = "Please try again."
	}
	return n
}
