// Package schema builds typed, validated structured-value descriptors from
// declarative field definitions.
//
// A [Definition] names a model, its fields and any nested models it refers
// to. [Factory.Build] parses every field type string (str, int, float, bool,
// any, List[T], Optional[T], Dict[K,V], Union[A,B,...] and bare model names),
// resolves nested model references in as many passes as it takes (declaration
// order does not matter) and reports every model it could not build in a
// [SchemaError]. The resulting [Model] validates payloads ([Model.Validate])
// and exports itself as JSON Schema ([Model.JSONSchema]).
package schema
