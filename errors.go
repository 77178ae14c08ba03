/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflowgen

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound    error = errors.New("template not found")
	ErrTemplateConflict    error = errors.New("conflicting template definition")
	ErrUnknownFieldType    error = errors.New("unknown field type")
	ErrUnknownVersion      error = errors.New("unknown version")
	ErrEmptyFlows          error = errors.New("configuration must contain at least one flow")
	ErrEmptyFlowSets       error = errors.New("flow must contain at least one flowset")
	ErrInvalidDestination  error = errors.New("invalid destination")
	ErrInvalidTemplateId   error = errors.New("invalid template id")
	ErrMessageTooLarge     error = errors.New("message exceeds maximum length")
	ErrTooManyFlowSets     error = errors.New("too many flowsets")
	ErrCaptureRequiresIPv4 error = errors.New("capture output requires an IPv4 destination")
)

func TemplateNotFound(domain uint32, templateId uint16) error {
	return fmt.Errorf("%w for %d in exporter domain %d", ErrTemplateNotFound, templateId, domain)
}

func TemplateConflict(domain uint32, templateId uint16) error {
	return fmt.Errorf("%w for %d in exporter domain %d", ErrTemplateConflict, templateId, domain)
}

func UnknownFieldType(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownFieldType, name)
}

func UnknownVersion(version string) error {
	return fmt.Errorf("%w %q, only v5, v7, v9, and ipfix are specified", ErrUnknownVersion, version)
}

func InvalidDestination(dest string, err error) error {
	return fmt.Errorf("%w %q: %v", ErrInvalidDestination, dest, err)
}

func InvalidTemplateId(id uint16) error {
	return fmt.Errorf("%w %d, data set ids start at 256", ErrInvalidTemplateId, id)
}

func TooManyFlowSets(n int) error {
	return fmt.Errorf("%w: %d exceeds the 16-bit count field", ErrTooManyFlowSets, n)
}

func MessageTooLarge(n int) error {
	return fmt.Errorf("%w: %d bytes exceed the 16-bit length field", ErrMessageTooLarge, n)
}
