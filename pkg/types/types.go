// Package types defines the shared data model for collector services: target
// environments, service locations, upload descriptors, and the path and
// timestamp conventions used when naming exported datasets.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/collectorkit/collectorkit/pkg/errors"
)

// Dataset maps a data-source name to the raw value collected for it.
type Dataset map[string]any

// Environment identifies the deployment environment a collector runs in.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
	EnvTest        Environment = "test"
	EnvStaging     Environment = "staging"
)

// IsProduction reports whether exports should go to cloud targets instead of
// the local filesystem.
func (e Environment) IsProduction() bool {
	return e == EnvProduction
}

// ParseEnvironment parses an environment name.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(strings.ToLower(s)) {
	case EnvProduction:
		return EnvProduction, nil
	case EnvDevelopment:
		return EnvDevelopment, nil
	case EnvTest:
		return EnvTest, nil
	case EnvStaging:
		return EnvStaging, nil
	default:
		return "", fmt.Errorf("invalid environment: %q", s)
	}
}

// ServiceLocation is the deployment scope tag used to build storage paths.
type ServiceLocation string

const (
	LocationGlobal ServiceLocation = "global"
	LocationSite   ServiceLocation = "site"
)

// ParseServiceLocation parses a service location.
func ParseServiceLocation(s string) (ServiceLocation, error) {
	switch ServiceLocation(strings.ToLower(s)) {
	case LocationGlobal:
		return LocationGlobal, nil
	case LocationSite:
		return LocationSite, nil
	default:
		return "", fmt.Errorf("invalid service location: %q (must be global or site)", s)
	}
}

// TimestampFormat renders the timestamp segment of an export filename.
type TimestampFormat func(time.Time) string

// DefaultTimestamp renders YYYY-MM-DD_HH:MM:SS.
func DefaultTimestamp(t time.Time) string {
	return t.Format("2006-01-02_15:04:05")
}

// LegacyTimestamp renders YYYY-MM-DD_DD_HH:MM:SS, repeating the day-of-month
// segment. Some deployed consumers key on this exact shape, so it stays
// available alongside DefaultTimestamp.
func LegacyTimestamp(t time.Time) string {
	return t.Format("2006-01-02_02_15:04:05")
}

// ExportFilename builds the conventional dataset filename
// {serviceName}-{dataSourceName}-{timestamp}.json.
func ExportFilename(serviceName, dataSourceName string, now time.Time, ts TimestampFormat) string {
	if ts == nil {
		ts = DefaultTimestamp
	}
	return fmt.Sprintf("%s-%s-%s.json", serviceName, dataSourceName, ts(now))
}

// UploadDescriptor describes where an exported payload should land. Either
// FilePath is set, giving the destination outright, or the remaining fields
// are combined into the conventional storage path.
type UploadDescriptor struct {
	FilePath        string          `json:"file_path,omitempty" yaml:"file_path"`
	ServiceName     string          `json:"service_name,omitempty" yaml:"service_name"`
	DataSourceName  string          `json:"data_source_name,omitempty" yaml:"data_source_name"`
	ServiceLocation ServiceLocation `json:"service_location,omitempty" yaml:"service_location"`
	SiteName        string          `json:"site_name,omitempty" yaml:"site_name"`
	Filename        string          `json:"filename,omitempty" yaml:"filename"`
}

// Validate checks the descriptor invariants, collecting every issue. A
// descriptor with an explicit FilePath is always valid; otherwise ServiceName
// and DataSourceName are required, and a site-scoped location requires a
// SiteName.
func (d UploadDescriptor) Validate() error {
	if d.FilePath != "" {
		return nil
	}

	var issues []errors.Issue
	if d.ServiceName == "" {
		issues = append(issues, errors.Issue{Field: "serviceName", Description: "required when no filePath is given"})
	}
	if d.DataSourceName == "" {
		issues = append(issues, errors.Issue{Field: "dataSourceName", Description: "required when no filePath is given"})
	}
	if d.ServiceLocation == LocationSite && d.SiteName == "" {
		issues = append(issues, errors.Issue{Field: "siteName", Description: "required when serviceLocation is site"})
	}

	if len(issues) > 0 {
		return errors.NewDescriptorInvalid(issues)
	}
	return nil
}

// WithDataSource returns a copy of the descriptor with the data-source name
// set. Used by the export pipeline when fanning a dataset out per entry.
func (d UploadDescriptor) WithDataSource(name string) UploadDescriptor {
	d.DataSourceName = name
	return d
}

// ObjectKey builds the destination object key. When FilePath is set it is
// used directly (minus any leading slash); otherwise the key follows
// global/{service}/{dataSource}/{filename} for global deployments and
// {location}/{site}/{service}/{dataSource}/{filename} for site deployments.
func (d UploadDescriptor) ObjectKey(now time.Time, ts TimestampFormat) string {
	if d.FilePath != "" {
		return strings.TrimPrefix(d.FilePath, "/")
	}

	filename := d.Filename
	if filename == "" {
		filename = ExportFilename(d.ServiceName, d.DataSourceName, now, ts)
	}

	if d.ServiceLocation == LocationSite {
		return fmt.Sprintf("%s/%s/%s/%s/%s",
			LocationSite, d.SiteName, d.ServiceName, d.DataSourceName, filename)
	}
	return fmt.Sprintf("%s/%s/%s/%s",
		LocationGlobal, d.ServiceName, d.DataSourceName, filename)
}
