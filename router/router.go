// Package router implements the addressable + broadcast message bus Lines
// use to exchange Messages.
package router

import "ampnode/message"

// Line is the minimal send capability the Router needs from a routable
// endpoint. The full Line capability set (open/close/poll/tick) lives in
// package line; Router only ever calls Send.
type Line interface {
	Send(msg message.Message)
	ID() uint32
}

// Router maintains route-id -> Line and a broadcast subscriber list, and
// dispatches Messages synchronously within the calling tick.
type Router struct {
	routes        map[uint32]Line
	broadcastSubs []Line
	observers     []Line // copied on every BROADCAST send, after the subscribers

	droppedCount  uint64
	inBroadcast   bool
}

// New constructs an empty Router.
func New() *Router {
	return &Router{routes: make(map[uint32]Line)}
}

// AddRoute registers l under its own ID for point-to-point delivery.
func (r *Router) AddRoute(l Line) {
	r.routes[l.ID()] = l
}

// RemoveRoute unregisters the route for id, if any.
func (r *Router) RemoveRoute(id uint32) {
	delete(r.routes, id)
}

// Subscribe adds l to the broadcast subscriber list.
func (r *Router) Subscribe(l Line) {
	r.broadcastSubs = append(r.broadcastSubs, l)
}

// AddObserver registers l to receive a copy of every BROADCAST message
// regardless of the normal dispatch path, e.g. the status UI.
func (r *Router) AddObserver(l Line) {
	r.observers = append(r.observers, l)
}

// DroppedCount returns how many Sends found no matching route or subscriber,
// plus re-entrant broadcasts that were skipped.
func (r *Router) DroppedCount() uint64 { return r.droppedCount }

// Send dispatches msg to the Line whose ID equals msg.DestAddress, or to
// every broadcast subscriber if msg.IsBroadcast(). A broadcast subscriber is
// never invoked re-entrantly from within its own Send.
func (r *Router) Send(msg message.Message) {
	if msg.IsBroadcast() {
		r.sendBroadcast(msg)
		return
	}
	l, ok := r.routes[msg.DestAddress]
	if !ok {
		r.droppedCount++
		return
	}
	l.Send(msg)
}

func (r *Router) sendBroadcast(msg message.Message) {
	if r.inBroadcast {
		// A Line's own Send triggered another broadcast synchronously; a
		// subscriber is never re-entered from its own send, so this
		// fan-out is skipped rather than recursed.
		r.droppedCount++
		return
	}
	r.inBroadcast = true
	defer func() { r.inBroadcast = false }()

	if len(r.broadcastSubs) == 0 && len(r.observers) == 0 {
		r.droppedCount++
	}
	for _, sub := range r.broadcastSubs {
		sub.Send(msg)
	}
	for _, obs := range r.observers {
		obs.Send(msg)
	}
}
