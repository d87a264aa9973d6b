package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MediCart/internal/catalog"
	"MediCart/internal/session"
	"MediCart/pkg/kit"
)

type ctxKey string

const storeKey ctxKey = "cart_store"

// NewContext attaches the session's cart store for the handlers below.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(storeKey).(*Store)
	return s, ok
}

const maxBodyBytes = 1 << 20

type Server struct {
	Catalog *catalog.Client
	Log     *zap.Logger
}

type view struct {
	Items      []Item `json:"items"`
	Count      int    `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.get)
	r.Delete("/", s.clear)
	r.Post("/items", s.addItem)
	r.Patch("/items/{id}", s.updateQuantity)
	r.Delete("/items/{id}", s.removeItem)

	return r
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	st, ok := FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}
	s.writeView(w, st)
}

type addReq struct {
	ProductID string `json:"product_id"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	st, ok := FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	var req addReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	p, err := s.Catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		s.writeCatalogError(w, r, err, req.ProductID)
		return
	}

	item := Item{
		ProductID:    p.ID,
		Name:         p.Name,
		PriceCents:   p.PriceCents,
		ImageURL:     p.ImageURL,
		Manufacturer: p.Manufacturer,
		Qty:          1,
	}

	if err := st.Add(r.Context(), item); err != nil {
		writeMutationError(w, r, err)
		return
	}

	s.writeView(w, st)
}

type updateReq struct {
	Qty int `json:"qty"`
}

func (s *Server) updateQuantity(w http.ResponseWriter, r *http.Request) {
	st, ok := FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	var req updateReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := st.UpdateQuantity(r.Context(), id, req.Qty); err != nil {
		writeMutationError(w, r, err)
		return
	}

	s.writeView(w, st)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	st, ok := FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	if err := st.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeMutationError(w, r, err)
		return
	}

	s.writeView(w, st)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	st, ok := FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	if err := st.Clear(r.Context()); err != nil {
		writeMutationError(w, r, err)
		return
	}

	s.writeView(w, st)
}

func (s *Server) writeView(w http.ResponseWriter, st *Store) {
	items := st.Items()
	if items == nil {
		items = []Item{}
	}
	kit.WriteJSON(w, http.StatusOK, view{
		Items:      items,
		Count:      st.Count(),
		TotalCents: st.TotalCents(),
	})
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error, productID string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product_id", map[string]any{"product_id": productID})
	case errors.Is(err, catalog.ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	default:
		if s.Log != nil {
			s.Log.Warn("catalog error", zap.Error(err), zap.String("product_id", productID))
		}
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	}
}

func writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrIdentityPending) {
		kit.WriteError(w, r, http.StatusConflict, "session resolving, retry", nil)
		return
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
