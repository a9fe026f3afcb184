package main

import (
	"github.com/architeacher/svc-pattern-queue/internal/runtime"
)

func main() {
	runtime.NewSubscriber().Run()
}
