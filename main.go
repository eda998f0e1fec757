package main

import (
	"log"

	"github.com/UniPro-tech/UniQUE-Auth/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
