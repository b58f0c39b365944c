package server

import "net/http"

// RPCWhoAmIHandler resolves the presented credential to a profile
// (POST /rpc/v1/auth/me). The CLI calls it to verify a credential before saving it.
func (s *Server) RPCWhoAmIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := mustIdentity(w, r)
		if identity == nil {
			return
		}
		writeJSON(w, http.StatusOK, profileFor(identity))
	}
}
