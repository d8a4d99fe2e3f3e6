package agent

import (
	"encoding/json"
	"strings"
	"time"
)

type Agent struct {
	ID          string
	Name        string
	Description string
	Avatar      string
	AvatarColor string
	CreatedAt   time.Time
}

func (a Agent) Key() string {
	return a.ID
}

// WithDefaults fills an empty avatar with the name's initials and an empty
// colour with the name's palette colour.
func (a Agent) WithDefaults() Agent {
	if strings.TrimSpace(a.Avatar) == "" {
		a.Avatar = Initials(a.Name)
	}
	if a.AvatarColor == "" {
		a.AvatarColor = AvatarColor(a.Name)
	}
	return a
}

type agentJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	AvatarColor string `json:"avatarColor,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

func (a Agent) MarshalJSON() ([]byte, error) {
	return json.Marshal(agentJSON{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Avatar:      a.Avatar,
		AvatarColor: a.AvatarColor,
		CreatedAt:   a.CreatedAt.UnixMilli(),
	})
}

func (a *Agent) UnmarshalJSON(data []byte) error {
	var j agentJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*a = Agent{
		ID:          j.ID,
		Name:        j.Name,
		Description: j.Description,
		Avatar:      j.Avatar,
		AvatarColor: j.AvatarColor,
		CreatedAt:   time.UnixMilli(j.CreatedAt),
	}
	return nil
}
