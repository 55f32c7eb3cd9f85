// Package reading defines the accelerometer reading produced by a micro:bit board.
//
// A board prints one line per sample in the form
//
//	<time_ms>\t<x>\t<y>\t<z>\n
//
// where time_ms is the board clock in milliseconds since boot (or -1 when the
// firmware has no timestamp for the sample) and x, y, z are accelerations in
// milli-g. The parser in internal/parser turns each line into a Reading:
//
//	r := reading.New(1500*time.Millisecond, true, [3]int32{0, 0, 1024})
//	fmt.Println(r.Magnitude) // 1024
//
// # JSON
//
// Readings are served over HTTP as JSON. The board clock is encoded in
// milliseconds and an unknown timestamp is reported with t_known=false:
//
//	{"t_ms":1500,"t_known":true,"accel":[0,0,1024],"magnitude":1024}
package reading
