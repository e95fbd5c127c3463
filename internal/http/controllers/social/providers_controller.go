package social

import (
	"net/http"

	"github.com/dropDatabas3/fedlogin/internal/http/helpers"
)

type providerItem struct {
	Name     string `json:"name"`
	ClientID string `json:"client_id"`
}

type providersResponse struct {
	Providers []providerItem `json:"providers"`
}

// ProvidersController maneja GET /v1/social/providers (init del SDK cliente).
type ProvidersController struct {
	providers ProviderLister
}

// NewProvidersController crea el controller.
func NewProvidersController(p ProviderLister) *ProvidersController {
	return &ProvidersController{providers: p}
}

// List devuelve solo los providers habilitados. Nunca expone el rol por defecto.
func (c *ProvidersController) List(w http.ResponseWriter, r *http.Request) {
	resp := providersResponse{Providers: []providerItem{}}
	for _, p := range c.providers.Enabled() {
		resp.Providers = append(resp.Providers, providerItem{Name: p.Provider.String(), ClientID: p.ClientID})
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	helpers.WriteJSON(w, http.StatusOK, resp)
}
