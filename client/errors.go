package client

import (
	"fmt"

	"github.com/jmgilman/go/errors"
)

// ConfigurationError reports a client name the Resolver cannot turn into a client.
//
// It satisfies errors.PlatformError with CodeInvalidConfig, so callers can use
// either errors.As(err, &*ConfigurationError) or errors.GetCode(err).
type ConfigurationError struct {
	Client string // The unresolvable name, verbatim
	Err    error  // Constructor failure, nil when the name is simply unknown
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Cannot find class \"%s\" to use as cache client.", e.Client)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Code() errors.ErrorCode {
	return errors.CodeInvalidConfig
}

func (e *ConfigurationError) Classification() errors.ErrorClassification {
	return errors.ClassificationPermanent
}

func (e *ConfigurationError) Message() string {
	return e.Error()
}

func (e *ConfigurationError) Context() map[string]interface{} {
	return map[string]interface{}{"client": e.Client}
}

var _ errors.PlatformError = (*ConfigurationError)(nil)
