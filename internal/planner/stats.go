package planner

// DaysPerDestination is the fixed planning heuristic behind EstimatedDays
const DaysPerDestination = 2

// Stats are derived from the selection length only
type Stats struct {
	DestinationCount int `json:"destinationCount"`
	RouteSegments    int `json:"routeSegments"`
	EstimatedDays    int `json:"estimatedDays"`
}

// ComputeStats derives itinerary statistics for n selected places
func ComputeStats(n int) Stats {
	if n < 0 {
		n = 0
	}
	segments := n - 1
	if segments < 0 {
		segments = 0
	}
	return Stats{
		DestinationCount: n,
		RouteSegments:    segments,
		EstimatedDays:    n * DaysPerDestination,
	}
}
