package handler

import (
	"io"
	"net/http"

	"github.com/josh-kwaku/ledgersync/internal/catalog"
	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

type catalogStore interface {
	Load() (*catalog.Catalog, error)
	Save(c *catalog.Catalog) error
}

type settingsStore interface {
	Load() (*settings.Document, error)
	SaveRaw(raw []byte) (*settings.Document, error)
}

// AdminHandler serves the file-backed catalog and runtime settings. Writes and
// settings reads sit behind basic auth in the router.
type AdminHandler struct {
	catalog  catalogStore
	settings settingsStore
}

func NewAdminHandler(catalog catalogStore, settings settingsStore) *AdminHandler {
	return &AdminHandler{catalog: catalog, settings: settings}
}

func (h *AdminHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.Load()
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load catalog", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, c)
}

func (h *AdminHandler) UpdateCatalog(w http.ResponseWriter, r *http.Request) {
	var c catalog.Catalog
	if err := decodeBody(r, &c); err != nil {
		RespondAppError(w, ErrInvalidRequest, "expected a JSON object")
		return
	}
	if c.Prices == nil {
		c.Prices = []catalog.Price{}
	}

	if err := h.catalog.Save(&c); err != nil {
		logging.FromContext(r.Context()).Warn("failed to update catalog", "error", err)
		RespondDomainError(w, err)
		return
	}
	logging.FromContext(r.Context()).Info("catalog updated", "prices", len(c.Prices))
	RespondSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := h.settings.Load()
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load runtime settings", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, doc)
}

func (h *AdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	doc, err := h.settings.SaveRaw(raw)
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed to update runtime settings", "error", err)
		RespondDomainError(w, err)
		return
	}
	logging.FromContext(r.Context()).Info("runtime settings updated",
		"master_alias", doc.MasterAccountAlias,
		"accounts", len(doc.Accounts),
	)
	RespondSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
