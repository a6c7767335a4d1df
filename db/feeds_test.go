package db

import (
	"testing"

	"newsdesk/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateFeed(t *testing.T) {
	valid := models.FeedConfig{
		Name:             "Feed A",
		SourceURL:        "https://a.example.com/rss",
		MaxItemsPerFetch: 10,
	}

	tests := []struct {
		name    string
		mutate  func(feed *models.FeedConfig)
		wantErr bool
	}{
		{
			name:    "valid feed",
			mutate:  func(feed *models.FeedConfig) {},
			wantErr: false,
		},
		{
			name:    "missing name",
			mutate:  func(feed *models.FeedConfig) { feed.Name = "" },
			wantErr: true,
		},
		{
			name:    "empty url",
			mutate:  func(feed *models.FeedConfig) { feed.SourceURL = "" },
			wantErr: true,
		},
		{
			name:    "url without scheme",
			mutate:  func(feed *models.FeedConfig) { feed.SourceURL = "a.example.com/rss" },
			wantErr: true,
		},
		{
			name:    "zero max items",
			mutate:  func(feed *models.FeedConfig) { feed.MaxItemsPerFetch = 0 },
			wantErr: true,
		},
		{
			name:    "negative max items",
			mutate:  func(feed *models.FeedConfig) { feed.MaxItemsPerFetch = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := valid
			tt.mutate(&feed)

			err := validateFeed(feed)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFeed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
