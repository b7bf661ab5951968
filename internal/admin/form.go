package admin

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/validation"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/client"
)

// Form holds the raw values of the create and edit forms so they can be
// rendered back after a rejected submission.
type Form struct {
	User     string
	Email    string
	Age      string
	Mobile   string
	Interest string
}

func formFromValues(v url.Values) Form {
	return Form{
		User:     v.Get("user"),
		Email:    strings.TrimSpace(v.Get("email")),
		Age:      strings.TrimSpace(v.Get("age")),
		Mobile:   strings.TrimSpace(v.Get("mobile")),
		Interest: strings.Join(v["interest"], ", "),
	}
}

func formFromUser(u *client.User) Form {
	return Form{
		User:     u.User,
		Email:    u.Email,
		Age:      strconv.Itoa(u.Age),
		Mobile:   strconv.FormatInt(u.Mobile, 10),
		Interest: strings.Join(u.Interest, ", "),
	}
}

// Interests splits the comma separated interest field, dropping blanks and
// repeats while keeping the entered order.
func (f Form) Interests() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, part := range strings.Split(f.Interest, ",") {
		in := strings.TrimSpace(part)
		if in == "" {
			continue
		}
		if _, ok := seen[in]; ok {
			continue
		}
		seen[in] = struct{}{}
		out = append(out, in)
	}
	return out
}

// Input checks the form against the API rule set plus the interest rule
// the frontend adds, and returns the request body for the API.
func (f Form) Input() (client.UserInput, error) {
	c := entity.Candidate{Interest: f.Interests()}
	if f.User != "" {
		c.User = &f.User
	}
	if f.Email != "" {
		c.Email = &f.Email
	}
	var err error
	if c.Age, err = parseNumber(f.Age, validation.MsgAgeNumber); err != nil {
		return client.UserInput{}, err
	}
	if c.Mobile, err = parseNumber(f.Mobile, validation.MsgMobileNumber); err != nil {
		return client.UserInput{}, err
	}
	if err := validation.Validate(c); err != nil {
		return client.UserInput{}, err
	}
	if err := validation.RequireInterest(c.Interest); err != nil {
		return client.UserInput{}, err
	}

	u := c.ToUser()
	return client.UserInput{
		User:     &u.Name,
		Email:    &u.Email,
		Age:      &u.Age,
		Mobile:   &u.Mobile,
		Interest: &c.Interest,
	}, nil
}

// parseNumber returns nil for an empty field so the required rule reports it.
func parseNumber(s, msg string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, msg)
	}
	return &f, nil
}
