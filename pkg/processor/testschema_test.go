package processor

import "github.com/northlane/recordcache/pkg/schema"

// testView builds the planet/moon/solarSystem schema used throughout this
// package's tests.
func testView() schema.View {
	planet := schema.NewBuilder("planet").
		Attribute("name").
		Attribute("classification").
		HasMany("moons", "moon", "planet").
		HasOne("solarSystem", "solarSystem", "planets").
		Build()

	moon := schema.NewBuilder("moon").
		Attribute("name").
		HasOne("planet", "planet", "moons").
		Build()

	solarSystem := schema.NewBuilder("solarSystem").
		Attribute("name").
		HasMany("planets", "planet", "solarSystem").
		Build()

	return schema.NewStaticView(planet, moon, solarSystem)
}

// testViewNoInverse declares a one-way relationship (no inverse name) so
// tests can confirm propagation is skipped when there's nothing to
// propagate to.
func testViewNoInverse() schema.View {
	planet := schema.NewBuilder("planet").Build()
	tag := schema.NewBuilder("tag").
		HasMany("planets", "planet", "").
		Build()
	return schema.NewStaticView(planet, tag)
}
