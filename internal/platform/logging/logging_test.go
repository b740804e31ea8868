package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	prev := logrus.StandardLogger().Out
	t.Cleanup(func() {
		logrus.SetOutput(prev)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	path := filepath.Join(t.TempDir(), "dispatch.log")
	log, err := Setup(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, log.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log.WithField("route_id", "r1").Info("hello")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"route_id":"r1"`)
}

func TestSetup_Rejects(t *testing.T) {
	_, err := Setup(Options{Level: "loud"})
	require.Error(t, err)

	_, err = Setup(Options{Level: "info", Format: "xml"})
	require.Error(t, err)
}
