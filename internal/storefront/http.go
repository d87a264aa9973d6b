package storefront

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"MediCart/internal/identity"
	"MediCart/internal/orders"
	"MediCart/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	JWT    *identity.TokenMaker
	Orders *orders.Client
	Log    *zap.Logger
}

type loginReq struct {
	AccessToken string `json:"access_token"`
}

// handleLogin verifies an externally issued access token and settles the
// session's identity on its holder. The source is pending for the
// duration of verification; a failed token settles back to anonymous.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	var req loginReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.AccessToken == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "access_token required", nil)
		return
	}

	sess.Identity.BeginResolve()

	claims, err := s.JWT.Parse(req.AccessToken)
	if err != nil {
		sess.Identity.ResolveAnonymous()
		sess.SetToken("")
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return
	}

	sess.Identity.Resolve(claims.UserID, claims.Role)
	sess.SetToken(req.AccessToken)

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	sess.Identity.ResolveAnonymous()
	sess.SetToken("")

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	snap := sess.Identity.Current()

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":          snap.UserID,
		"role":             snap.Role,
		"pending":          snap.Pending,
		"cart_count":       sess.Cart.Count(),
		"cart_total_cents": sess.Cart.TotalCents(),
		"wishlist_count":   sess.Wishlist.Count(),
	})
}

// handleCheckout forwards the cart to the backend order API and clears it
// once the backend accepts the order.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "no session", nil)
		return
	}

	snap := sess.Identity.Current()
	if snap.Pending || snap.UserID == "" {
		kit.WriteError(w, r, http.StatusUnauthorized, "login required", nil)
		return
	}

	items := sess.Cart.Items()
	if len(items) == 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
		return
	}

	lines := make([]orders.Item, 0, len(items))
	for _, it := range items {
		lines = append(lines, orders.Item{ProductID: it.ProductID, Qty: it.Qty})
	}

	o, err := s.Orders.Place(r.Context(), sess.Token(), lines)
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}

	if err := sess.Cart.Clear(r.Context()); err != nil && s.Log != nil {
		s.Log.Warn("cart clear after checkout failed", zap.Error(err),
			zap.String("order_id", o.ID))
	}

	kit.WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, orders.ErrUnauthorized):
		kit.WriteError(w, r, http.StatusUnauthorized, "order rejected: unauthorized", nil)
	case errors.Is(err, orders.ErrRejected):
		kit.WriteError(w, r, http.StatusBadRequest, "order rejected", nil)
	case errors.Is(err, orders.ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "order api unavailable", nil)
	default:
		if s.Log != nil {
			s.Log.Warn("order api error", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusBadGateway, "order api error", nil)
	}
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
