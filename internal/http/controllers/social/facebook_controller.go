package social

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/dropDatabas3/fedlogin/internal/http/helpers"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/security/nonce"
	"github.com/dropDatabas3/fedlogin/internal/session"
	"github.com/dropDatabas3/fedlogin/internal/social"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

const (
	// MsgInvalidNonce es la respuesta ante un nonce inválido o vencido.
	MsgInvalidNonce = "Invalid security token"
	// MsgInvalidRequest: body ilegible (JSON roto, form mal codificado o demasiado grande).
	MsgInvalidRequest = "Invalid request"
)

type facebookRequest struct {
	Nonce string          `json:"nonce"`
	Res   json.RawMessage `json:"res"`
}

// envelope es la respuesta {success, data} que consume el SDK cliente.
type envelope struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

// FacebookController maneja POST /v1/social/facebook.
type FacebookController struct {
	broker   social.Broker
	sessions *session.Manager
	nonces   NonceService
}

// NewFacebookController crea el controller.
func NewFacebookController(b social.Broker, sessions *session.Manager, nonces NonceService) *FacebookController {
	return &FacebookController{broker: b, sessions: sessions, nonces: nonces}
}

// Login acepta JSON {"nonce","res":{perfil}} o form: nonce más res como string JSON
// o como campos res[...] (la codificación por defecto de jQuery).
// Toda respuesta, incluso un body ilegible, usa el envelope {success, data}.
func (c *FacebookController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("FacebookController.Login"))

	req, err := c.readRequest(w, r)
	if err != nil {
		log.Info("facebook body rejected", logger.Err(err))
		helpers.WriteJSON(w, http.StatusBadRequest, envelope{Success: false, Data: MsgInvalidRequest})
		return
	}

	if err := c.nonces.Verify(req.Nonce, nonce.ActionFacebookLogin); err != nil {
		log.Warn("facebook nonce rejected", logger.Err(err))
		helpers.WriteJSON(w, http.StatusBadRequest, envelope{Success: false, Data: MsgInvalidNonce})
		return
	}

	cred := identity.Credential{Provider: identity.Facebook, Payload: unwrapString(req.Res)}

	switch o := c.broker.Login(ctx, cred, c.sessions.Bind(w, r)).(type) {
	case *social.Success:
		log.Info("facebook login ok", logger.AccountID(o.AccountID), logger.Decision(o.Decision.String()))
		helpers.WriteJSON(w, http.StatusOK, envelope{Success: true, Data: o.RedirectTarget})
	case *social.Failure:
		log.Info("facebook login failed", logger.Reason(string(o.Reason)), logger.Any("path", trail(o)))
		helpers.WriteJSON(w, http.StatusBadRequest, envelope{Success: false, Data: o.UserMessage})
	}
}

func (c *FacebookController) readRequest(w http.ResponseWriter, r *http.Request) (facebookRequest, error) {
	var req facebookRequest
	if helpers.IsJSON(r) {
		return req, helpers.DecodeJSON(w, r, &req)
	}

	r.Body = http.MaxBytesReader(w, r.Body, helpers.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Nonce = r.PostFormValue("nonce")
	if res := strings.TrimSpace(r.PostFormValue("res")); res != "" {
		req.Res = json.RawMessage(res)
		return req, nil
	}
	if nested := bracketed(r.PostForm, "res"); nested != nil {
		raw, err := json.Marshal(nested)
		if err != nil {
			return req, err
		}
		req.Res = raw
	}
	return req, nil
}

// bracketed rearma root[a][b]=v en {"a":{"b":"v"}}. Un segmento final vacío (root[a][]) junta
// todos los valores en una lista. Devuelve nil si no hay campos root[...].
func bracketed(form url.Values, root string) map[string]any {
	keys := make([]string, 0, len(form))
	for k := range form {
		if strings.HasPrefix(k, root+"[") {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	out := map[string]any{}
	for _, k := range keys {
		path, ok := splitBrackets(k[len(root):])
		if !ok || len(form[k]) == 0 {
			continue
		}
		var val any = form[k][0]
		if path[len(path)-1] == "" {
			path = path[:len(path)-1]
			list := make([]any, len(form[k]))
			for i, v := range form[k] {
				list[i] = v
			}
			val = list
		}
		if len(path) == 0 {
			continue
		}

		node := out
		for _, seg := range path[:len(path)-1] {
			next, isMap := node[seg].(map[string]any)
			if !isMap {
				next = map[string]any{}
				node[seg] = next
			}
			node = next
		}
		node[path[len(path)-1]] = val
	}
	return out
}

// splitBrackets: "[a][b][]" -> [a b ""].
func splitBrackets(s string) ([]string, bool) {
	var path []string
	for s != "" {
		if s[0] != '[' {
			return nil, false
		}
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, false
		}
		path = append(path, s[1:end])
		s = s[end+1:]
	}
	return path, len(path) > 0
}

// unwrapString: algunos clientes mandan res como string JSON dentro del JSON.
func unwrapString(raw json.RawMessage) json.RawMessage {
	t := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(t, `"`) {
		return raw
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return raw
	}
	return json.RawMessage(inner)
}
