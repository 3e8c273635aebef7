// Package idgen provides the id factories used for workbook elements.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// Supported id formats.
const (
	FormatUUID  = "uuid"
	FormatKSUID = "ksuid"
)

// Factory creates element ids.
type Factory interface {
	NewID() string
}

// UUIDFactory issues compact random UUIDs (no dashes), the form mind-map files use.
type UUIDFactory struct{}

// NewID returns a new id.
func (UUIDFactory) NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// KSUIDFactory issues K-sortable ids, handy when ids should order by creation time.
type KSUIDFactory struct{}

// NewID returns a new id.
func (KSUIDFactory) NewID() string {
	return ksuid.New().String()
}

// NewFactory returns the factory for the given format. An empty format means uuid.
func NewFactory(format string) (Factory, error) {
	switch strings.ToLower(format) {
	case "", FormatUUID:
		return UUIDFactory{}, nil
	case FormatKSUID:
		return KSUIDFactory{}, nil
	default:
		return nil, fmt.Errorf("unsupported id format: %s", format)
	}
}
