// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package animation

import "fmt"

func errUnknownParam(id ID, param ParamID) error {
	return fmt.Errorf("animation %s: no such parameter %q", id, param)
}
