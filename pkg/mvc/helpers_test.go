package mvc

import "net/http"

type testController struct {
	Base
}

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func newRequest(method, path string) *Request {
	return &Request{Method: method, Path: path, Header: http.Header{}}
}

func withQuery(r *Request, kv ...string) *Request {
	for i := 0; i+1 < len(kv); i += 2 {
		r.Query = append(r.Query, Pair{Key: kv[i], Value: kv[i+1]})
	}
	return r
}

func withJSON(r *Request, body string) *Request {
	r.Header.Set("Content-Type", ContentJSON)
	r.Body.Raw = []byte(body)
	return r
}

func action(method, path, contentType string, params ...Param) *Action {
	return &Action{
		Controller:  "Test",
		Name:        "Do",
		Method:      method,
		Path:        path,
		ContentType: contentType,
		Params:      params,
		Handler:     func(Controller, *Args) (Result, error) { return Text("ok"), nil },
		New:         func() Controller { return &testController{} },
	}
}
