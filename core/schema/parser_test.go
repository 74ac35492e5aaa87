package schema

import "testing"

func TestParseType(t *testing.T) {
	declared := map[string]bool{"Address": true, "Adresse_ä": true}
	tests := []struct {
		in   string
		want string
	}{
		{"str", "str"},
		{"string", "str"},
		{"Integer", "int"},
		{"number", "float"},
		{"boolean", "bool"},
		{"Any", "any"},
		{"list", "List[any]"},
		{"dict", "Dict[str, any]"},
		{"List[str]", "List[str]"},
		{"Optional[ int ]", "Optional[int]"},
		{"Dict[str, List[float]]", "Dict[str, List[float]]"},
		{"Union[str, int, bool]", "Union[str, int, bool]"},
		{"List[Address]", "List[Address]"},
		{"Optional[Address]", "Optional[Address]"},
		{"Unknown", "Unknown"},
		{"Adresse_ä", "Adresse_ä"},
		{"List[Adresse_ä]", "List[Adresse_ä]"},
		{"Dict[str, Straße]", "Dict[str, Straße]"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseType(tt.in, declared)
			if err != nil {
				t.Fatalf("parseType(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("parseType(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseType_Errors(t *testing.T) {
	for _, in := range []string{"", "List[", "List[str", "Dict[str]", "Union[str]", "Optional[]", "str]", "Foo[int]", "Address[str]"} {
		if _, err := parseType(in, map[string]bool{"Address": true}); err == nil {
			t.Errorf("parseType(%q) should fail", in)
		}
	}
}

func TestParseType_DeclaredModelShadowsBuiltin(t *testing.T) {
	got, err := parseType("Object", map[string]bool{"Object": true})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != kindRef {
		t.Errorf("declared model name should win over the builtin, got %s", got)
	}
}
