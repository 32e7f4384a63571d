package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/invite-users/internal/invite"
	"github.com/ignite/invite-users/internal/pkg/httputil"
	"github.com/ignite/invite-users/internal/pkg/logger"
	"github.com/ignite/invite-users/internal/session"
	"github.com/ignite/invite-users/internal/spreadsheet"
)

// TemplateLinker hands out download URLs for the import template.
type TemplateLinker interface {
	URL(ctx context.Context) (string, error)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Handlers contains all HTTP handlers of the invite form.
type Handlers struct {
	sessions  *session.Manager
	sender    invite.Sender
	parser    *spreadsheet.Parser
	templates TemplateLinker
	cookie    CookieConfig
	maxUpload int64
}

// Deps are the collaborators of Handlers.
type Deps struct {
	Sessions *session.Manager
	Sender   invite.Sender
	Parser   *spreadsheet.Parser
	// Templates is optional; without it the template is streamed directly.
	Templates TemplateLinker
	Cookie    CookieConfig
	MaxUpload int64
}

// NewHandlers creates the invite form handlers.
func NewHandlers(d Deps) *Handlers {
	if d.Parser == nil {
		d.Parser = spreadsheet.NewParser(d.MaxUpload)
	}
	if d.MaxUpload <= 0 {
		d.MaxUpload = spreadsheet.DefaultMaxFileSize
	}
	if d.Cookie.Name == "" {
		d.Cookie.Name = "invite_session"
	}
	return &Handlers{
		sessions:  d.Sessions,
		sender:    d.Sender,
		parser:    d.Parser,
		templates: d.Templates,
		cookie:    d.Cookie,
		maxUpload: d.MaxUpload,
	}
}

// Response is the body of every form operation. Operation-specific fields
// are only present for the operation that produced them.
type Response struct {
	State   *invite.State        `json:"state,omitempty"`
	Notice  *invite.Notice       `json:"notice,omitempty"`
	Handled *bool                `json:"handled,omitempty"`
	Added   *int                 `json:"added,omitempty"`
	Import  *invite.ImportReport `json:"import,omitempty"`
	Result  *invite.SendResult   `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
	Code    string               `json:"code,omitempty"`
}

// statusByKind maps error kinds to HTTP status codes.
var statusByKind = map[invite.Kind]int{
	invite.KindLocalValidation: http.StatusUnprocessableEntity,
	invite.KindFileType:        http.StatusUnsupportedMediaType,
	invite.KindParse:           http.StatusUnprocessableEntity,
	invite.KindSubmission:      http.StatusBadGateway,
	invite.KindDownload:        http.StatusInternalServerError,
	invite.KindNotFound:        http.StatusNotFound,
	invite.KindConflict:        http.StatusConflict,
}

// known returns s unless it is the zero State handed back on storage
// failures.
func known(s invite.State) *invite.State {
	if s.SelectedRole == "" {
		return nil
	}
	return &s
}

// respondError writes err as a notice. Unclassified errors are logged and
// reported as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, state *invite.State, err error) {
	kind := invite.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
		logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else if status >= 500 {
		logger.Warn("request failed", "path", r.URL.Path, "kind", kind, "error", err)
	}

	notice := invite.ErrorNotice(err)
	httputil.JSON(w, status, Response{
		State:  state,
		Notice: notice,
		Error:  notice.Title,
		Code:   kind.String(),
	})
}

// respond writes a successful operation result.
func respond(w http.ResponseWriter, state invite.State, resp Response) {
	resp.State = &state
	httputil.OK(w, resp)
}
