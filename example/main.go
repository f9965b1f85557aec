package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/furkansenharputlu/f-keyfile/client"
	"github.com/furkansenharputlu/f-keyfile/lcs"
)

// A sibling worker of the licensed product. It asks the f-keyfile host for
// the license state instead of reading the license file itself.

var serverURL = "http://localhost:4242"

var cloudEnabled bool

func main() {
	if u := os.Getenv("FKEYFILE_URL"); u != "" {
		serverURL = u
	}

	for {
		poll()

		if cloudEnabled {
			fmt.Println("Cloud features are enabled")
		}

		time.Sleep(time.Minute)
	}
}

func poll() {
	s, err := client.Status(serverURL)
	if err != nil {
		logrus.WithError(err).Error("Couldn't reach the license host")
		return
	}

	if !s.Valid {
		logrus.WithField("kind", s.Kind).Warn(s.Message)
		cloudEnabled = false
		return
	}

	cloudEnabled, err = client.HasFeature(serverURL, lcs.TagCloud)
	if err != nil {
		logrus.WithError(err).Error("Couldn't query the license host")
	}
}
