package registry

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fakeEntity struct {
	Param1 string
	Param2 string
}

func fakeEntityFactory(kwargs Kwargs) (fakeEntity, error) {
	var cfg struct {
		Param1 string `mapstructure:"param_1"`
		Param2 string `mapstructure:"param_2"`
	}
	if err := kwargs.Decode(&cfg); err != nil {
		return fakeEntity{}, err
	}
	return fakeEntity{Param1: cfg.Param1, Param2: cfg.Param2}, nil
}

func fakeCatalog() *Catalog[fakeEntity] {
	return NewCatalog[fakeEntity]().Add("tests/registration", "fake_entity_factory", fakeEntityFactory)
}

func TestRegistry_RegisterAndMake(t *testing.T) {
	entries := map[string]EntryPoint[fakeEntity]{
		"func": Func(fakeEntityFactory),
		"ref":  Ref[fakeEntity]("tests/registration:fake_entity_factory"),
	}
	for name, entry := range entries {
		t.Run(name, func(t *testing.T) {
			r := NewRegistry(WithCatalog(fakeCatalog()))
			require.NoError(t, r.Register("SomeEntity-v0", entry,
				WithKwargs(Kwargs{"param_1": "PARAM_1", "param_2": "PARAM_2"})))
			require.NoError(t, r.Register("SomeEntity-v1", entry,
				WithKwargs(Kwargs{"param_1": "WRONG_PARAM_1", "param_2": "PARAM_2"})))

			e0, err := r.Make("SomeEntity-v0", nil)
			require.NoError(t, err)
			assert.Equal(t, fakeEntity{"PARAM_1", "PARAM_2"}, e0)

			e1, err := r.Make("SomeEntity-v1", nil)
			require.NoError(t, err)
			assert.Equal(t, "WRONG_PARAM_1", e1.Param1)

			all := r.All()
			require.Len(t, all, 2)
			assert.Equal(t, "SomeEntity-v0", all[0].ID)
			assert.Equal(t, "SomeEntity-v1", all[1].ID)
		})
	}
}

func TestRegistry_CallKwargsOverrideFixed(t *testing.T) {
	r := NewRegistry[fakeEntity]()
	require.NoError(t, r.Register("Entity-v0", Func(fakeEntityFactory),
		WithKwargs(Kwargs{"param_1": "fixed", "param_2": "kept"})))

	e, err := r.Make("Entity-v0", Kwargs{"param_1": "call"})
	require.NoError(t, err)
	assert.Equal(t, fakeEntity{"call", "kept"}, e)

	// fixed kwargs are not mutated by the override
	spec, ok := r.Get("Entity-v0")
	require.True(t, ok)
	assert.Equal(t, "fixed", spec.Kwargs["param_1"])
}

func TestRegistry_MakeBuildsFreshInstances(t *testing.T) {
	calls := 0
	r := NewRegistry[*int]()
	require.NoError(t, r.Register("Counter-v1", Func(func(Kwargs) (*int, error) {
		calls++
		n := calls
		return &n, nil
	})))

	a, err := r.Make("Counter-v1", nil)
	require.NoError(t, err)
	b, err := r.Make("Counter-v1", nil)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, calls)
}

func TestRegistry_DuplicateID(t *testing.T) {
	r := NewRegistry[fakeEntity]()
	require.NoError(t, r.Register("Entity-v0", Func(fakeEntityFactory),
		WithKwargs(Kwargs{"param_1": "original"})))

	err := r.Register("Entity-v0", Func(fakeEntityFactory), WithKwargs(Kwargs{"param_1": "shadow"}))
	require.Error(t, err)
	assert.True(t, IsDuplicateID(err))
	assert.Contains(t, err.Error(), "Entity-v0")

	assert.Equal(t, 1, r.Len())
	e, err := r.Make("Entity-v0", nil)
	require.NoError(t, err)
	assert.Equal(t, "original", e.Param1)
}

func TestRegistry_MakeMissingEntity(t *testing.T) {
	r := NewRegistry[fakeEntity]()
	_, err := r.Make("Entity-v0", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsDeprecated(err))
	assert.Contains(t, err.Error(), "no registered entity with ID")
}

func TestRegistry_MakeDeprecatedEntity(t *testing.T) {
	r := NewRegistry(WithCatalog(fakeCatalog()))
	require.NoError(t, r.Register("Defunct-v0", Defunct[fakeEntity]()))
	require.NoError(t, r.Register("Flagged-v0", Ref[fakeEntity]("tests/registration:fake_entity_factory"), Deprecated()))
	require.NoError(t, r.Register("Empty-v0", Ref[fakeEntity]("")))
	require.NoError(t, r.Register("Nil-v0", nil))

	kwargSets := []Kwargs{nil, {}, {"param_1": "x"}, {"param_1": "x", "param_2": "y"}}
	for _, id := range []string{"Defunct-v0", "Flagged-v0", "Empty-v0", "Nil-v0"} {
		spec, ok := r.Get(id)
		require.True(t, ok)
		assert.True(t, spec.Deprecated(), id)

		for _, kw := range kwargSets {
			_, err := r.Make(id, kw)
			require.Error(t, err)
			assert.True(t, IsDeprecated(err), "%s with %v", id, kw)
			assert.False(t, IsNotFound(err))
			assert.Contains(t, err.Error(), "attempting to make deprecated entity")
		}
	}
}

func TestRegistry_UnresolvableRef(t *testing.T) {
	r := NewRegistry(WithCatalog(fakeCatalog()))
	require.NoError(t, r.Register("NoColon-v0", Ref[fakeEntity]("fake_entry_point")))
	require.NoError(t, r.Register("NoModule-v0", Ref[fakeEntity]("tests/missing:fake_entity_factory")))
	require.NoError(t, r.Register("NoAttr-v0", Ref[fakeEntity]("tests/registration:missing")))

	for _, id := range []string{"NoColon-v0", "NoModule-v0", "NoAttr-v0"} {
		_, err := r.Make(id, nil)
		require.Error(t, err, id)
		assert.True(t, IsUnresolvable(err), id)

		var re *Error
		require.True(t, errors.As(err, &re))
		assert.Equal(t, id, re.ID)
	}

	noCatalog := NewRegistry[fakeEntity]()
	require.NoError(t, noCatalog.Register("Entity-v0", Ref[fakeEntity]("tests/registration:fake_entity_factory")))
	_, err := noCatalog.Make("Entity-v0", nil)
	assert.True(t, IsUnresolvable(err))
}

func TestRegistry_FactoryErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry[fakeEntity]()
	require.NoError(t, r.Register("Broken-v1", Func(func(Kwargs) (fakeEntity, error) {
		return fakeEntity{}, boom
	})))

	_, err := r.Make("Broken-v1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_WellFormedIDs(t *testing.T) {
	good := []string{
		"user1/entity_name_1-v1",
		"user1/entity_name_1-v12",
		"entity:name.1-v0",
		"ns:sub-ns/SVC-v2",
		"cv-v10",
	}
	for _, id := range good {
		t.Run(id, func(t *testing.T) {
			r := NewRegistry[fakeEntity]()
			assert.NoError(t, r.Register(id, Defunct[fakeEntity]()))
		})
	}
}

func TestRegistry_MalformedIDs(t *testing.T) {
	bad := []string{
		"EntityMissingVersionName",
		"EntityNoDashBetweenVersionv0",
		"user1/user2/EntityTwoUsers-v0",
		"EntityNaughty$ymbols-v0",
		"Entity-v",
		"Entity-v1.2.0",
		"Entity_v1",
		"",
	}
	for _, id := range bad {
		t.Run(id, func(t *testing.T) {
			r := NewRegistry[fakeEntity]()
			err := r.Register(id, Func(fakeEntityFactory))
			require.Error(t, err)
			assert.True(t, IsMalformedID(err))
			assert.Contains(t, err.Error(), "attempted to register malformed entity ID")
			assert.Contains(t, err.Error(), IDPattern)
			assert.Empty(t, r.All())
		})
	}
}

func TestRegistry_SpecsAreImmutable(t *testing.T) {
	kw := Kwargs{"param_1": "a"}
	r := NewRegistry[fakeEntity]()
	require.NoError(t, r.Register("Entity-v0", Func(fakeEntityFactory), WithKwargs(kw)))

	kw["param_1"] = "mutated"
	spec, _ := r.Get("Entity-v0")
	spec.Kwargs["param_1"] = "mutated again"

	again, _ := r.Get("Entity-v0")
	assert.Equal(t, "a", again.Kwargs["param_1"])
}

func TestParseID(t *testing.T) {
	id, err := ParseID("user1/svc.linear-v12")
	require.NoError(t, err)
	assert.Equal(t, ID{Namespace: "user1", Name: "svc.linear", Version: "12"}, id)

	id, err = ParseID("SVC-v1")
	require.NoError(t, err)
	assert.Equal(t, ID{Name: "SVC", Version: "1"}, id)

	id, err = ParseID("x-v99999999999999999999")
	require.NoError(t, err)
	assert.Equal(t, "99999999999999999999", id.Version)

	_, err = ParseID("SVC")
	assert.True(t, IsMalformedID(err))
}

func TestRegistry_RegisterAcceptsLongVersions(t *testing.T) {
	r := NewRegistry[fakeEntity]()
	require.NoError(t, r.Register("x-v99999999999999999999", Func(fakeEntityFactory)))
	_, err := r.Make("x-v99999999999999999999", nil)
	require.NoError(t, err)
}

func TestRegistry_IDGrammarProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ns := rapid.StringMatching(`([A-Za-z0-9_:-]{1,8}/)?`).Draw(rt, "ns")
		name := rapid.StringMatching(`[A-Za-z0-9_:.-]{1,12}`).Draw(rt, "name")
		version := rapid.IntRange(0, 999).Draw(rt, "version")
		id := ns + name + "-v" + strconv.Itoa(version)

		r := NewRegistry[fakeEntity]()
		if err := r.Register(id, Func(fakeEntityFactory), WithKwargs(Kwargs{"param_1": "p"})); err != nil {
			rt.Fatalf("well-formed id %q rejected: %v", id, err)
		}
		e, err := r.Make(id, Kwargs{"param_2": "q"})
		if err != nil {
			rt.Fatalf("make %q: %v", id, err)
		}
		if e.Param1 != "p" || e.Param2 != "q" {
			rt.Fatalf("kwargs not merged: %+v", e)
		}

		bad := rapid.StringMatching(`[A-Za-z]{1,8}[$ #@!]{1,3}-v1`).Draw(rt, "bad")
		if err := r.Register(bad, Func(fakeEntityFactory)); !IsMalformedID(err) {
			rt.Fatalf("malformed id %q accepted", bad)
		}
		if r.Len() != 1 {
			rt.Fatalf("rejected id changed the registry")
		}
	})
}
