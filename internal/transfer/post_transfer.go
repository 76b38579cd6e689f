package transfer

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type PostCreation struct {
	SocialAccountID int64      `json:"social_account_id"`
	Content         string     `json:"content"`
	MediaURLs       []string   `json:"media_urls"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
}

func (p PostCreation) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.SocialAccountID, validation.Required),
		validation.Field(&p.Content, validation.Required.When(len(p.MediaURLs) == 0), validation.Length(0, 5000)),
		validation.Field(&p.MediaURLs, validation.Each(is.URL)),
	)
}

// PostUpdate carries a partial edit. Nil pointers leave the field alone;
// ClearSchedule flips the post back to DRAFT.
type PostUpdate struct {
	Content       *string    `json:"content"`
	MediaURLs     []string   `json:"media_urls"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	ClearSchedule bool       `json:"clear_schedule"`
}

func (p PostUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Content, validation.Length(0, 5000)),
		validation.Field(&p.MediaURLs, validation.Each(is.URL)),
	)
}
