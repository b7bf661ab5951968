package admin

import (
	"strings"

	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/client"
)

// Stats are the dashboard counters shown above the user list.
type Stats struct {
	Total             int
	AverageAge        float64
	DistinctInterests int
}

func computeStats(users []client.User) Stats {
	s := Stats{Total: len(users)}
	if s.Total == 0 {
		return s
	}
	interests := make(map[string]struct{})
	sum := 0
	for _, u := range users {
		sum += u.Age
		for _, in := range u.Interest {
			interests[strings.ToLower(in)] = struct{}{}
		}
	}
	s.AverageAge = float64(sum) / float64(s.Total)
	s.DistinctInterests = len(interests)
	return s
}

// filterUsers keeps users whose name or email contains q, ignoring case.
func filterUsers(users []client.User, q string) []client.User {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return users
	}
	out := make([]client.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.User), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}
