package main

// Version is set at build time via ldflags:
//
//	go build -ldflags "-X main.Version=1.2.0"
var Version = "0.3.0"

func GetVersion() string {
	return Version
}
