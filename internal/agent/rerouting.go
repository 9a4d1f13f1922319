package agent

// reroutingUnscheduled is the countdown value of a disarmed controller.
const reroutingUnscheduled = -1.0

// RerouteIn arms the rerouting controller to fire after time seconds.
func (a *Agent) RerouteIn(time float64) {
	a.reroutingEnabled = true
	a.timeBeforeRerouting = time
}

// UpdateReroutingTime advances the countdown by one timestep.
func (a *Agent) UpdateReroutingTime() {
	a.timeBeforeRerouting -= a.deltaT
}

// IsReadyForRerouting reports whether the controller is armed and has elapsed.
func (a *Agent) IsReadyForRerouting() bool {
	return a.reroutingEnabled && a.timeBeforeRerouting <= 0.0
}

// ResetRerouting disarms the controller.
func (a *Agent) ResetRerouting() {
	a.reroutingEnabled = false
	a.timeBeforeRerouting = reroutingUnscheduled
}

// TimeBeforeRerouting returns the remaining countdown.
func (a *Agent) TimeBeforeRerouting() float64 { return a.timeBeforeRerouting }
