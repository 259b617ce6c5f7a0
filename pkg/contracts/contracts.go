package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Stopper is implemented by handlers that own background work which must end
// before the process exits.
type Stopper interface {
	Stop()
}
