package parser_test

import (
	"fmt"

	"github.com/jittakal/sensorwindow/internal/parser"
)

func ExampleParseAccel() {
	r, err := parser.ParseAccel([]byte("1500\t0\t600\t800\n"))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(r.Time, r.Accel, r.Magnitude)
	// Output: 1.5s [0 600 800] 1000
}
