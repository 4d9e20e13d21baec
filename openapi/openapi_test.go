package openapi_test

import (
	"testing"
	"testing/fstest"

	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/apiprobe/apiprobe/references"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersSpec = `
openapi: 3.0.3
info:
  title: Users API
  version: 1.0.0
paths:
  /users:
    post:
      operationId: createUser
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/NewUser'
          multipart/form-data:
            schema:
              type: object
              properties:
                avatar:
                  type: file
      responses:
        '201':
          description: created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/User'
          links:
            GetUserById:
              operationId: getUser
              parameters:
                user_id: $response.body#/id
  /users/{user_id}:
    get:
      operationId: getUser
      parameters:
        - name: user_id
          in: path
          schema:
            type: string
        - name: verbose
          in: query
          schema:
            type: boolean
        - name: X-Trace
          in: header
          schema:
            type: string
            nullable: true
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/User'
        '404':
          description: missing
        default:
          description: unexpected
components:
  schemas:
    NewUser:
      type: object
      properties:
        name:
          type: string
      required: [name]
    User:
      type: object
      properties:
        id:
          type: string
        name:
          type: string
      required: [id]
`

func loadDoc(t *testing.T, spec string) *openapi.Document {
	t.Helper()

	doc, err := openapi.Parse([]byte(spec))
	require.NoError(t, err)
	return doc
}

func collectOps(t *testing.T, doc *openapi.Document) map[string]*openapi.Operation {
	t.Helper()

	ops := map[string]*openapi.Operation{}
	for op, err := range doc.Operations(t.Context()) {
		require.NoError(t, err)
		ops[op.ID()] = op
	}
	return ops
}

func TestParse_VersionDetection(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, usersSpec)
	assert.Equal(t, openapi.VersionOpenAPI3, doc.Version())

	_, err := openapi.Parse([]byte(`swagger: "1.2"`))
	require.ErrorIs(t, err, openapi.ErrInvalidDocument)

	_, err = openapi.Parse([]byte(`title: not a spec`))
	require.ErrorIs(t, err, openapi.ErrInvalidDocument)
}

func TestDocument_Operations_Success(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, usersSpec)
	ops := collectOps(t, doc)
	require.Len(t, ops, 2)

	get := ops["getUser"]
	require.NotNil(t, get)
	assert.Equal(t, "/users/{user_id}", get.Path)
	assert.Equal(t, "get", get.Method)

	pathSet := get.ParameterSetFor(openapi.LocationPath)
	require.NotNil(t, pathSet)
	require.Len(t, pathSet.Parameters, 1)
	assert.True(t, pathSet.Parameters[0].Required, "path parameters are always required")
	assert.Equal(t, openapi.SerializationStyleSimple, pathSet.Parameters[0].Style.Style)

	querySet := get.ParameterSetFor(openapi.LocationQuery)
	require.NotNil(t, querySet)
	assert.Equal(t, openapi.SerializationStyleForm, querySet.Parameters[0].Style.Style)
	assert.True(t, querySet.Parameters[0].Style.Explode)

	// nullable was normalized into a type union.
	headerSet := get.ParameterSetFor(openapi.LocationHeader)
	require.NotNil(t, headerSet)
	headerSchema := jsonschema.New(headerSet.Parameters[0].Schema)
	assert.ElementsMatch(t, []jsonschema.SchemaType{jsonschema.SchemaTypeString, jsonschema.SchemaTypeNull}, headerSchema.Types())
}

func TestDocument_Operations_BodyVariants(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, usersSpec)
	post := collectOps(t, doc)["createUser"]
	require.NotNil(t, post)

	require.Len(t, post.Bodies, 2)

	byMediaType := map[string]*openapi.BodyVariant{}
	for _, b := range post.Bodies {
		byMediaType[b.MediaType] = b
		assert.True(t, b.Required)
	}

	jsonBody := byMediaType["application/json"]
	require.NotNil(t, jsonBody)
	schema := jsonschema.New(jsonBody.Schema)
	assert.Equal(t, []string{"name"}, schema.Required())

	// The legacy file type was normalized on the multipart alternative.
	multipart := byMediaType["multipart/form-data"]
	require.NotNil(t, multipart)
	avatar := jsonschema.New(jsonschema.New(multipart.Schema).Properties().GetOrZero("avatar"))
	assert.Equal(t, []jsonschema.SchemaType{jsonschema.SchemaTypeString}, avatar.Types())
	assert.Equal(t, "binary", avatar.GetOrZero("format"))
}

func TestDocument_Operations_ResponsesAndLinks(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, usersSpec)
	ops := collectOps(t, doc)

	post := ops["createUser"]
	created, ok := post.Responses.Get("201")
	require.True(t, ok)
	require.NotNil(t, created.Schema)
	assert.True(t, created.Links.Has("GetUserById"))

	get := ops["getUser"]
	assert.Equal(t, []string{"200", "404", "default"}, get.SelectorSiblings())
}

func TestDocument_Operations_MalformedOperationDoesNotAbort(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, `
openapi: 3.0.0
info:
  title: t
  version: "1"
paths:
  /broken:
    get:
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Missing'
  /ok:
    get:
      operationId: ok
      responses:
        '204':
          description: no content
`)

	var okOps, schemaErrs int
	for op, err := range doc.Operations(t.Context()) {
		if err != nil {
			var schemaErr *openapi.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, "/broken", schemaErr.Path)
			assert.Equal(t, "get", schemaErr.Method)
			schemaErrs++
			continue
		}
		assert.Equal(t, "ok", op.ID())
		okOps++
	}

	assert.Equal(t, 1, schemaErrs)
	assert.Equal(t, 1, okOps)
}

func TestIndex_Lookups(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, usersSpec)
	ops := collectOps(t, doc)
	require.Len(t, ops, 2)

	byID, ok := doc.Index().FindByID("getUser")
	require.True(t, ok)
	assert.Equal(t, "/users/{user_id}", byID.Path)

	byRef, ok := doc.Index().FindByRef("#/paths/~1users/post")
	require.True(t, ok)
	assert.Equal(t, "createUser", byRef.OperationID)

	byKey, ok := doc.Index().FindByKey(openapi.TraversalKey{Path: "/users", Method: "post"})
	require.True(t, ok)
	assert.Same(t, byRef, byKey)

	_, ok = doc.Index().FindByID("nope")
	assert.False(t, ok)
}

func TestIndex_ScopedLookup_ExternalPathItem(t *testing.T) {
	t.Parallel()

	vfs := fstest.MapFS{
		"items.yaml": &fstest.MapFile{Data: []byte(`
StatusItem:
  get:
    operationId: getStatus
    responses:
      '204':
        description: ok
`)},
	}

	doc, err := openapi.Parse([]byte(`
openapi: 3.0.3
info:
  title: t
  version: "1"
paths:
  /status:
    $ref: 'items.yaml#/StatusItem'
`), openapi.WithResolverOptions(references.WithVirtualFS(vfs)))
	require.NoError(t, err)

	ops := collectOps(t, doc)
	require.Len(t, ops, 1)

	// The operation stays addressable by its plain key and additionally by
	// the scope chain it was reached through.
	plain, ok := doc.Index().FindByKey(openapi.TraversalKey{Path: "/status", Method: "get"})
	require.True(t, ok)

	scope := references.NewScope("document.yaml").Push("items.yaml")
	scoped, ok := doc.Index().FindByKey(openapi.TraversalKey{
		ScopeDigest: scope.Digest(),
		Path:        "/status",
		Method:      "get",
	})
	require.True(t, ok)
	assert.Same(t, plain, scoped)
}
