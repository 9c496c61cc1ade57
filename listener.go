// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.30
//

package gorssi

// Listener is notified when an estimation starts and ends.
//
// OnEstimateStart runs while the estimator is locked: the listener may inspect
// it, but every setter and Estimate itself fail with ErrLocked.
// OnEstimateEnd runs after a successful estimation only.
type Listener interface {
	OnEstimateStart(e *Estimator)
	OnEstimateEnd(e *Estimator)
}

// ListenerFuncs adapts a pair of functions to Listener. Nil functions are skipped.
type ListenerFuncs struct {
	Start func(e *Estimator)
	End   func(e *Estimator)
}

func (l ListenerFuncs) OnEstimateStart(e *Estimator) {
	if l.Start != nil {
		l.Start(e)
	}
}

func (l ListenerFuncs) OnEstimateEnd(e *Estimator) {
	if l.End != nil {
		l.End(e)
	}
}

// Listeners fans notifications out to several listeners, in order
type Listeners []Listener

func (ls Listeners) OnEstimateStart(e *Estimator) {
	for _, l := range ls {
		l.OnEstimateStart(e)
	}
}

func (ls Listeners) OnEstimateEnd(e *Estimator) {
	for _, l := range ls {
		l.OnEstimateEnd(e)
	}
}
