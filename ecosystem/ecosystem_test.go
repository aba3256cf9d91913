package ecosystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transitTED = `
prefixes:
  core: "http://example.org/core#"
resources:
  - id: network
    types: [core:Network]
    graph:
      - p: core:name
        o: Metro
    endpoints:
      - href: "http://api.example.org/network"
        order: 1
  - id: station
    node: "_:station"
    types: [core:Station]
    vars: [sid]
    depends_on: [network]
    graph:
      - p: core:partOf
        o: "_:network"
    endpoints:
      - path: "stations/{sid}"
        order: 1
`

func TestParse(t *testing.T) {
	eco, err := Parse([]byte(transitTED))
	require.NoError(t, err)

	network, err := eco.Description("network")
	require.NoError(t, err)
	assert.Equal(t, []string{"core:Network"}, network.Types)
	assert.Equal(t, "network", network.Node)
	require.Len(t, network.Static, 1)
	assert.True(t, network.Static[0].Subject.IsBlank())
	assert.Equal(t, "http://example.org/core#name", network.Static[0].Predicate.Value())
	assert.Equal(t, "Metro", network.Static[0].Object.Value())

	station, err := eco.Description("station")
	require.NoError(t, err)
	assert.Equal(t, "station", station.Node)
	assert.Equal(t, []string{"sid"}, station.Vars)
	require.Len(t, station.Static, 1)
	assert.True(t, station.Static[0].Object.IsBlank())
	assert.Equal(t, "network", station.Static[0].Object.Value())
}

func TestDescriptionUnknownResource(t *testing.T) {
	eco, err := Parse([]byte(transitTED))
	require.NoError(t, err)

	_, err = eco.Description("nope")
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestRoots(t *testing.T) {
	eco, err := Parse([]byte(transitTED))
	require.NoError(t, err)

	roots := eco.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "network", roots[0].ID)
	assert.True(t, eco.IsRoot("network"))
	assert.False(t, eco.IsRoot("station"))
	assert.False(t, eco.IsRoot("nope"))
}

func TestNodeOwner(t *testing.T) {
	eco, err := Parse([]byte(transitTED))
	require.NoError(t, err)

	owner, ok := eco.NodeOwner("station")
	assert.True(t, ok)
	assert.Equal(t, "station", owner)

	_, ok = eco.NodeOwner("ghost")
	assert.False(t, ok)
}

func TestComposeEndpoints(t *testing.T) {
	eco, err := Parse([]byte(transitTED))
	require.NoError(t, err)

	endpoints, err := eco.ComposeEndpoints("station")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "http://api.example.org/network/stations/{sid}", endpoints[0].Href)
	assert.False(t, endpoints[0].Open())
}

func TestComposeEndpointsFanOut(t *testing.T) {
	const ted = `
resources:
  - id: east
    endpoints:
      - href: "http://east.example.org/api"
  - id: west
    endpoints:
      - href: "http://west.example.org/api"
  - id: line
    depends_on: [east, west]
    endpoints:
      - path: "lines/{lid}"
`
	eco, err := Parse([]byte(ted))
	require.NoError(t, err)

	endpoints, err := eco.ComposeEndpoints("line")
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "http://east.example.org/api/lines/{lid}", endpoints[0].Href)
	assert.Equal(t, "http://west.example.org/api/lines/{lid}", endpoints[1].Href)
}

func TestParseRejectsCycle(t *testing.T) {
	const ted = `
resources:
  - id: a
    depends_on: [b]
    endpoints:
      - path: "a"
  - id: b
    depends_on: [a]
    endpoints:
      - path: "b"
`
	_, err := Parse([]byte(ted))
	assert.ErrorIs(t, err, ErrCycle)
}

func TestParseRejectsUnknownDependency(t *testing.T) {
	const ted = `
resources:
  - id: a
    depends_on: [ghost]
    endpoints:
      - path: "a"
`
	_, err := Parse([]byte(ted))
	assert.Error(t, err)
}

func TestParseRejectsOpenEndpointWithoutDependency(t *testing.T) {
	const ted = `
resources:
  - id: a
    endpoints:
      - path: "dangling"
`
	_, err := Parse([]byte(ted))
	assert.Error(t, err)
}

func TestParseRejectsDuplicateID(t *testing.T) {
	const ted = `
resources:
  - id: a
  - id: a
`
	_, err := Parse([]byte(ted))
	assert.Error(t, err)
}

func TestParseExplicitLiteralDatatype(t *testing.T) {
	const ted = `
prefixes:
  core: "http://example.org/core#"
resources:
  - id: stop
    graph:
      - p: core:opens
        o:
          value: "08:00"
          datatype: xsd:time
`
	eco, err := Parse([]byte(ted))
	require.NoError(t, err)

	stop, err := eco.Description("stop")
	require.NoError(t, err)
	require.Len(t, stop.Static, 1)
	obj := stop.Static[0].Object
	assert.True(t, obj.IsLiteral())
	assert.Equal(t, "08:00", obj.Value())
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#time", obj.Datatype())
}
