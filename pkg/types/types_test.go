package types

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectorkit/collectorkit/pkg/errors"
)

func TestUploadDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name       string
		desc       UploadDescriptor
		wantFields []string
	}{
		{
			name: "file path alone is always valid",
			desc: UploadDescriptor{FilePath: "/x"},
		},
		{
			name: "file path overrides other missing fields",
			desc: UploadDescriptor{FilePath: "/x", ServiceLocation: LocationSite},
		},
		{
			name: "complete global descriptor",
			desc: UploadDescriptor{ServiceName: "nodewatch", DataSourceName: "nodes", ServiceLocation: LocationGlobal},
		},
		{
			name: "complete site descriptor",
			desc: UploadDescriptor{ServiceName: "nodewatch", DataSourceName: "nodes", ServiceLocation: LocationSite, SiteName: "fra1"},
		},
		{
			name:       "site without site name",
			desc:       UploadDescriptor{ServiceName: "nodewatch", DataSourceName: "nodes", ServiceLocation: LocationSite},
			wantFields: []string{"siteName"},
		},
		{
			name:       "missing everything",
			desc:       UploadDescriptor{ServiceLocation: LocationSite},
			wantFields: []string{"serviceName", "dataSourceName", "siteName"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var cerr *errors.CollectorError
			require.True(t, stderrors.As(err, &cerr))
			assert.Equal(t, errors.ErrCodeDescriptorInvalid, cerr.Code)
			require.Len(t, cerr.Issues, len(tt.wantFields))
			for i, field := range tt.wantFields {
				assert.Equal(t, field, cerr.Issues[i].Field)
			}
		})
	}
}

func TestUploadDescriptor_ObjectKey(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 30, 5, 0, time.UTC)

	t.Run("global path", func(t *testing.T) {
		d := UploadDescriptor{
			ServiceName:     "nodewatch",
			DataSourceName:  "nodes",
			ServiceLocation: LocationGlobal,
		}
		assert.Equal(t,
			"global/nodewatch/nodes/nodewatch-nodes-2025-03-09_14:30:05.json",
			d.ObjectKey(now, DefaultTimestamp))
	})

	t.Run("site path", func(t *testing.T) {
		d := UploadDescriptor{
			ServiceName:     "nodewatch",
			DataSourceName:  "nodes",
			ServiceLocation: LocationSite,
			SiteName:        "fra1",
		}
		assert.Equal(t,
			"site/fra1/nodewatch/nodes/nodewatch-nodes-2025-03-09_14:30:05.json",
			d.ObjectKey(now, DefaultTimestamp))
	})

	t.Run("explicit file path wins, leading slash trimmed", func(t *testing.T) {
		d := UploadDescriptor{FilePath: "/exports/raw.json", ServiceName: "ignored"}
		assert.Equal(t, "exports/raw.json", d.ObjectKey(now, DefaultTimestamp))
	})

	t.Run("explicit filename wins over generated", func(t *testing.T) {
		d := UploadDescriptor{
			ServiceName:     "nodewatch",
			DataSourceName:  "nodes",
			ServiceLocation: LocationGlobal,
			Filename:        "snapshot.json",
		}
		assert.Equal(t, "global/nodewatch/nodes/snapshot.json", d.ObjectKey(now, DefaultTimestamp))
	})
}

func TestTimestampFormats(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 30, 5, 0, time.UTC)

	assert.Equal(t, "2025-03-09_14:30:05", DefaultTimestamp(now))
	assert.Equal(t, "2025-03-09_09_14:30:05", LegacyTimestamp(now))
}

func TestParseEnvironment(t *testing.T) {
	env, err := ParseEnvironment("Production")
	require.NoError(t, err)
	assert.True(t, env.IsProduction())

	env, err = ParseEnvironment("staging")
	require.NoError(t, err)
	assert.False(t, env.IsProduction())

	_, err = ParseEnvironment("qa")
	assert.Error(t, err)
}

func TestParseServiceLocation(t *testing.T) {
	loc, err := ParseServiceLocation("site")
	require.NoError(t, err)
	assert.Equal(t, LocationSite, loc)

	_, err = ParseServiceLocation("region")
	assert.Error(t, err)
}
