package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts its routes on a shared router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}

// Handlers mounts several handlers as one.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(router *httprouter.Router) {
	for _, h := range hs {
		h.RegisterRoutes(router)
	}
}
