// Package app wires the feature services together and registers the bus
// handlers every console instance runs.
package app

// setupEventBus registers the handlers of this instance: applying cache
// invalidations broadcast by other instances, and persisting admin.action
// events to the audit log.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	if a.Deps.Cache != nil {
		a.Deps.Cache.Subscribe(bus)
	}
	if a.Audit != nil {
		a.Audit.Register(bus)
	}
}
