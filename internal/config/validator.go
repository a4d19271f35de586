package config

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/StrategicUser/smcroute/internal/iface"
)

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must have at least %s element(s)", e.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "ifpattern":
		return "must be an interface name or wildcard pattern (e.g. eth0 or vlan+)"
	case "mcast_group":
		return "must be a multicast group address"
	case "mcast_source":
		return "must be a unicast IP address or \"*\""
	case "hostport_or_empty":
		return "must be in format 'host:port' or empty"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	ItemName  string // For phyints/mroutes: the configured pattern or group
	FieldPath string // Dot-notation field path (e.g., "general.api_listen", "mroute.0.group")
	Message   string // Human-readable error message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators
	if err := validate.RegisterValidation("ifpattern", validateIfPattern); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("mcast_group", validateMcastGroup); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("mcast_source", validateMcastSource); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("hostport_or_empty", validateHostPortOrEmpty); err != nil {
		panic(err)
	}

	// Register function to get field name from "toml" tag
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validator: interface name or wildcard pattern
func validateIfPattern(fl validator.FieldLevel) bool {
	pattern := fl.Field().String()
	if pattern == "" || pattern == "+" {
		return false
	}
	if iface.IsWildcard(pattern) {
		pattern = pattern[:len(pattern)-1]
	}
	// Must fit the kernel's interface name budget and contain no
	// whitespace or alias separator.
	if len(pattern) > 15 {
		return false
	}
	return !strings.ContainsAny(pattern, " \t:+")
}

// Custom validator: multicast group address (IPv4 or IPv6)
func validateMcastGroup(fl validator.FieldLevel) bool {
	ip := net.ParseIP(fl.Field().String())
	return ip != nil && ip.IsMulticast()
}

// Custom validator: unicast source address or "*"
func validateMcastSource(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "*" {
		return true
	}
	ip := net.ParseIP(value)
	return ip != nil && !ip.IsMulticast()
}

// Custom validator: host:port format or empty
func validateHostPortOrEmpty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, _, err := net.SplitHostPort(value)
	return err == nil
}

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if c.General != nil {
		if err := validate.Struct(c.General); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, "general", "")...)
		}
	}

	validationErrors = append(validationErrors, c.validatePhyints()...)
	validationErrors = append(validationErrors, c.validateMRoutes()...)

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

func (c *Config) validatePhyints() ValidationErrors {
	var validationErrors ValidationErrors

	seenPatterns := make(map[string]bool)

	for i, phyint := range c.Phyint {
		itemName := phyint.Interface
		if itemName == "" {
			itemName = fmt.Sprintf("phyint[%d]", i)
		}

		if err := validate.Struct(phyint); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, fmt.Sprintf("phyint.%d", i), itemName)...)
		}

		if seenPatterns[phyint.Interface] {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: "interface",
				Message:   fmt.Sprintf("duplicate phyint: %s", phyint.Interface),
			})
		}
		seenPatterns[phyint.Interface] = true
	}

	return validationErrors
}

func (c *Config) validateMRoutes() ValidationErrors {
	var validationErrors ValidationErrors

	for i, route := range c.MRoutes {
		itemName := route.Group
		if itemName == "" {
			itemName = fmt.Sprintf("mroute[%d]", i)
		}

		if err := validate.Struct(route); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, fmt.Sprintf("mroute.%d", i), itemName)...)
			continue
		}

		// Source and group must belong to the same address family.
		if !route.IsAnySource() {
			src := net.ParseIP(route.Source)
			grp := net.ParseIP(route.Group)
			if src != nil && grp != nil && (src.To4() == nil) != (grp.To4() == nil) {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: "source",
					Message:   fmt.Sprintf("source %s and group %s have different address families", route.Source, route.Group),
				})
			}
		}

		// The inbound interface must be an enabled phyint.
		if !c.hasPhyintFor(route.From) {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: "from",
				Message:   fmt.Sprintf("inbound interface %s is not declared as an enabled phyint", route.From),
			})
		}
	}

	return validationErrors
}

// hasPhyintFor reports whether an enabled phyint declaration covers the
// given interface name or pattern. A wildcard route pattern is covered
// when any enabled phyint shares a prefix relationship with it.
func (c *Config) hasPhyintFor(pattern string) bool {
	for _, phyint := range c.Phyint {
		if !phyint.Enable {
			continue
		}
		if phyint.Interface == pattern {
			return true
		}
		if iface.IsWildcard(phyint.Interface) &&
			strings.HasPrefix(pattern, phyint.Interface[:len(phyint.Interface)-1]) {
			return true
		}
		if iface.IsWildcard(pattern) &&
			strings.HasPrefix(phyint.Interface, pattern[:len(pattern)-1]) {
			return true
		}
	}
	return false
}

func convertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			fieldPath := fieldPrefix
			if e.Field() != "" {
				// e.Field() returns the TOML tag name because of the
				// registered TagNameFunc
				fieldName := e.Field()

				if fieldPrefix != "" {
					fieldPath = fieldPrefix + "." + fieldName
				} else {
					fieldPath = fieldName
				}
			}

			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fieldPath,
				Message:   getValidationMessage(e),
			})
		}
	} else if err != nil {
		validationErrors = append(validationErrors, ValidationError{
			ItemName:  itemName,
			FieldPath: fieldPrefix,
			Message:   err.Error(),
		})
	}

	return validationErrors
}
