/*
Package resources locates font files and makes them available as typefaces.

Fonts may come from three sources:

  - font files given by path (OpenType, TrueType, collections, or Type 1
    metrics files)
  - fonts installed on the system, found by name
  - families downloaded from Google Fonts into a local cache directory

Downloaded families are kept in a Cache. Clients create a cache explicitly,
either for a directory of their choice or from an application configuration
(see CacheFromConfig).

As resource loading may be a time-consuming task, ResolveTypeface works in an
async/await fashion by returning a promise. The client will call the promise
later to receive the loaded typeface; this call blocks until loading has
completed.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package resources

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces to tracing key 'fontloom.resources'.
func tracer() tracing.Trace {
	return tracing.Select("fontloom.resources")
}
