package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	p := &Publisher{prefix: "tagindex"}
	require.Equal(t, "tagindex.pass.completed", p.Subject(SubjectPassCompleted))
	require.Equal(t, "tagindex.link.dangling", p.Subject(SubjectDanglingLink))

	bare := &Publisher{}
	require.Equal(t, "pass.completed", bare.Subject(SubjectPassCompleted))
}

func TestCloseNilSafe(t *testing.T) {
	var p *Publisher
	p.Close()

	(&Publisher{}).Close()
}
