package main

import (
	_ "time/tzdata"

	"good-morning-backend/cmd"
)

func main() {
	cmd.Run()
}
