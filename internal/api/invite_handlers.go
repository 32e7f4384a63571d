package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/ignite/invite-users/internal/invite"
	"github.com/ignite/invite-users/internal/pkg/httputil"
	"github.com/ignite/invite-users/internal/pkg/logger"
	"github.com/ignite/invite-users/internal/spreadsheet"
)

// =============================================================================
// REQUEST BODIES
// =============================================================================

type inputRequest struct {
	Value string `json:"value"`
}

type keyRequest struct {
	Key string `json:"key" validate:"required"`
}

type pasteRequest struct {
	Text string `json:"text"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type updateEntryRequest struct {
	Email *string `json:"email" validate:"required_without=Role"`
	Role  *string `json:"role" validate:"required_without=Email"`
}

// RoleOption describes a selectable role.
type RoleOption struct {
	Value       invite.Role `json:"value"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Default     bool        `json:"default,omitempty"`
}

// ImportOptions describes what the import endpoint accepts.
type ImportOptions struct {
	Accept   string `json:"accept"`
	MaxBytes int64  `json:"maxBytes"`
}

// =============================================================================
// SESSION
// =============================================================================

// HandleNewSession starts a fresh form, discarding the caller's previous one.
//
//	POST /api/invite/session
func (h *Handlers) HandleNewSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cookie.Name); err == nil && c.Value != "" {
		if err := h.sessions.Discard(r.Context(), c.Value); err != nil {
			logger.Warn("discard session failed", "session", c.Value, "error", err)
		}
	}

	id, state, err := h.sessions.Create(r.Context())
	if err != nil {
		respondError(w, r, nil, err)
		return
	}
	h.setSessionCookie(w, id)
	httputil.Created(w, Response{State: &state})
}

// HandleState returns the current form.
//
//	GET /api/invite/state
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Get(r.Context(), sessionID(r.Context()))
	if err != nil {
		respondError(w, r, nil, err)
		return
	}
	respond(w, state, Response{})
}

// HandleRoles lists the assignable roles.
//
//	GET /api/invite/roles
func (h *Handlers) HandleRoles(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, lo.Map(invite.Roles, func(role invite.Role, _ int) RoleOption {
		return RoleOption{
			Value:       role,
			Label:       role.Label(),
			Description: role.Description(),
			Default:     role == invite.DefaultRole,
		}
	}))
}

// HandleImportOptions reports the file types and size the import accepts.
//
//	GET /api/invite/import/options
func (h *Handlers) HandleImportOptions(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, ImportOptions{Accept: spreadsheet.AcceptAttribute, MaxBytes: h.maxUpload})
}

// =============================================================================
// COLLECTING
// =============================================================================

// HandleInput records typed text; a trailing delimiter commits it.
//
//	POST /api/invite/input {"value": "a@b.com,"}
func (h *Handlers) HandleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	state, err := h.sessions.Do(r.Context(), sessionID(r.Context()), func(f *invite.Form) error {
		f.Input(req.Value)
		return nil
	})
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	respond(w, state, Response{})
}

// HandleKey applies a key press to the pending input.
//
//	POST /api/invite/key {"key": "Enter"}
func (h *Handlers) HandleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	var handled bool
	state, err := h.sessions.Do(r.Context(), sessionID(r.Context()), func(f *invite.Form) error {
		handled = f.KeyDown(invite.Key(req.Key))
		return nil
	})
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	respond(w, state, Response{Handled: lo.ToPtr(handled)})
}

// HandlePaste splits pasted text into addresses.
//
//	POST /api/invite/paste {"text": "a@b.com; c@d.com"}
func (h *Handlers) HandlePaste(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	var added int
	state, err := h.sessions.Do(r.Context(), sessionID(r.Context()), func(f *invite.Form) error {
		added = f.Paste(req.Text)
		return nil
	})
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	respond(w, state, Response{Added: lo.ToPtr(added), Notice: invite.PastedNotice(added)})
}

// HandleImport reads addresses from an uploaded spreadsheet.
//
//	POST /api/invite/import (multipart field "file")
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())

	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.importFailed(w, r, id, invite.ErrUnreadableFile)
			return
		}
		httputil.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	if _, err := spreadsheet.CheckFileType(header.Filename); err != nil {
		h.importFailed(w, r, id, err)
		return
	}

	rows, err := h.parser.Parse(r.Context(), header.Filename, file)
	if err != nil {
		logger.Warn("import parse failed", "file", header.Filename, "error", err)
		h.importFailed(w, r, id, err)
		return
	}

	var report invite.ImportReport
	state, err := h.sessions.Do(r.Context(), id, func(f *invite.Form) error {
		var err error
		report, err = f.Import(rows)
		return err
	})
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	respond(w, state, Response{Import: &report, Notice: invite.ImportedNotice(report)})
}

// importFailed reports an import error together with the unchanged form.
func (h *Handlers) importFailed(w http.ResponseWriter, r *http.Request, id string, err error) {
	state, getErr := h.sessions.Get(r.Context(), id)
	if getErr != nil {
		respondError(w, r, nil, getErr)
		return
	}
	respondError(w, r, &state, err)
}

// =============================================================================
// EDITING
// =============================================================================

// HandleSelectRole sets the role for current and future entries.
//
//	PUT /api/invite/role {"role": "admin"}
func (h *Handlers) HandleSelectRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	state, err := h.sessions.Do(r.Context(), sessionID(r.Context()), func(f *invite.Form) error {
		role, err := invite.ParseRole(req.Role)
		if err != nil {
			return err
		}
		return f.SelectRole(role)
	})
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	respond(w, state, Response{})
}

// HandleUpdateEntry edits the address and/or role of one entry.
//
//	PATCH /api/invite/entries/{id} {"email": "...", "role": "guest"}
func (h *Handlers) HandleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	entryID := chi.URLParam(r, "id")

	state, err := h.sessions.Do(r.Context(), sessionID(r.Context()), func(f *invite.Form) error {
		var role invite.Role
		if req.Role != nil {
			var err error
			if role, err = invite.ParseRole(*req.Role); err != nil {
				return err
			}
		}
		if req.Email != nil {
			if _, err := f.UpdateEmail(entryID, *req.Email); err != nil {
				return err
			}
		}
		if req.Role != nil {
			if _, err := f.SetRole(entryID, role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	respond(w, state, Response{})
}

// HandleRemoveEntry deletes one entry.
//
//	DELETE /api/invite/entries/{id}
func (h *Handlers) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	state, err := h.sessions.Do(r.Context(), sessionID(r.Context()), func(f *invite.Form) error {
		return f.Remove(entryID)
	})
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	respond(w, state, Response{})
}

// HandleClear deletes every entry.
//
//	DELETE /api/invite/entries
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Do(r.Context(), sessionID(r.Context()), func(f *invite.Form) error {
		f.Clear()
		return nil
	})
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	respond(w, state, Response{})
}

// =============================================================================
// SUBMISSION & TEMPLATE
// =============================================================================

// HandleSubmit sends invitations for every entry.
//
//	POST /api/invite/submit
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	res, state, err := h.sessions.Submit(r.Context(), id, h.sender)
	if err != nil {
		respondError(w, r, known(state), err)
		return
	}
	logger.Info("invitations submitted", "session", id, "count", res.Count)
	respond(w, state, Response{Result: &res, Notice: invite.SentNotice(res)})
}

// HandleTemplate serves the import template. With S3 publishing enabled
// the client is redirected to a presigned URL, or receives it as JSON when
// called with ?link=1.
//
//	GET /api/invite/template
func (h *Handlers) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	if h.templates != nil {
		url, err := h.templates.URL(r.Context())
		if err != nil {
			respondError(w, r, nil, err)
			return
		}
		if r.URL.Query().Get("link") != "" {
			httputil.OK(w, map[string]any{"url": url, "notice": invite.TemplateNotice()})
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	data, err := spreadsheet.BuildTemplate()
	if err != nil {
		respondError(w, r, nil, err)
		return
	}
	httputil.Attachment(w, spreadsheet.TemplateFileName, spreadsheet.TemplateContentType, data)
}
