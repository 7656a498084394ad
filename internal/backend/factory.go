// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

// New creates a backend API implementation over the request pipeline.
func New(pipeline Doer) API {
	return newHTTP(pipeline)
}
