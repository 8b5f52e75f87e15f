// Package hwcomposer holds release metadata shared across the daemon and
// its CLI, the same role the teacher's root smoothpaper package played.
package hwcomposer

// Version is stamped at build time via -ldflags; the fallback below is
// what ships in a dev checkout.
var Version = "0.1.0-dev"

// DefaultConfig is written out by `hwcomposerd --installconfig`.
const DefaultConfig = `# hwcomposerd configuration

# KMS/DRM device node to drive.
device = "/dev/dri/card0"

# CRTC id to bind the display queue to. The value is used as given; no
# CRTC is picked automatically.
crtc_id = 0

# Display mode dimensions.
width = 1920
height = 1080

# DRM overlay plane object ids available for layer assignment.
plane_ids = []

# DRM plane object id reserved for the cursor layer. 0 disables it.
cursor_plane_id = 0

# Not read by hwcomposerd: the number of idle frames before the
# idle-refresh path is fixed at 30.
idle_frames = 30

# Not read by hwcomposerd: the display queue always waits on the previous
# commit's fence before it commits the next frame.
double_buffering = "double"

debug = false
`
