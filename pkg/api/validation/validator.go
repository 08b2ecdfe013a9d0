// Zaparoo Launch
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Launch.
//
// Zaparoo Launch is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Launch is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Launch.  If not, see <http://www.gnu.org/licenses/>.

// Package validation checks API request bodies with go-playground/validator
// plus the custom tags the launcher needs.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingBody = errors.New("missing request body")
	ErrInvalidBody = errors.New("invalid request body")
)

// storePlatforms are the platform names the store CLIs accept.
var storePlatforms = []string{"windows", "mac", "linux"}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("appname", validateAppName)
	_ = v.RegisterValidation("abspath", validateAbsPath)
	_ = v.RegisterValidation("storeplatform", validateStorePlatform)

	return &Validator{validate: v}
}

// DefaultValidator is shared by the API handlers.
var DefaultValidator = NewValidator()

// Validate returns an *Error describing every failed field.
func (v *Validator) Validate(params any) error {
	if err := v.validate.Struct(params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateVar checks a single value against tag.
func (v *Validator) ValidateVar(value any, tag string) error {
	if err := v.validate.Var(value, tag); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// DecodeAndValidate unmarshals a JSON body into dest and validates it.
// An empty body leaves dest at its zero value when allowEmpty is set.
func DecodeAndValidate[T any](body []byte, dest *T, allowEmpty bool) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		if !allowEmpty {
			return ErrMissingBody
		}
	} else if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return DefaultValidator.Validate(dest)
}

// validateAppName rejects names that can't be used as a settings file.
func validateAppName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	return val != "" && val != "." && val != ".." && !strings.ContainsAny(val, `/\`)
}

func validateAbsPath(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return filepath.IsAbs(val) || strings.HasPrefix(val, "~/")
}

func validateStorePlatform(fl validator.FieldLevel) bool {
	val := strings.ToLower(fl.Field().String())
	if val == "" {
		return true
	}
	for _, p := range storePlatforms {
		if val == p {
			return true
		}
	}
	return false
}
