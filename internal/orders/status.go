package orders

import "fmt"

type Status string

// remember to add new statuses to validNext
const (
	StatusPlaced    Status = "placed"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPlaced:    {StatusCancelled: true},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ToStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validNext[status]; ok {
		return status, nil
	}
	return "", InvalidInput(fmt.Sprintf("unknown order status %q", s))
}
