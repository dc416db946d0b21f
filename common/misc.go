package common

import (
	"os"
)

const defaultServiceName = "bantay"

func GetServiceName() string {
	name := os.Getenv("SERVICE_NAME")
	if name == "" {
		return defaultServiceName
	}
	return name
}

func GetServiceInstance() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
