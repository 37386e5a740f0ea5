// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package partx runs multi-part object transfers, such as S3 multi-part
uploads, as a set of independently retried HTTP requests.

Describe the transfer as a Job: a list of parts, and a BuildFunc which
turns the request of a part into the HTTP message of one attempt.

	job := &partx.Job{
		Build: partx.Builder("PUT", func(r *request.Request) string {
			return fmt.Sprintf("%s?partNumber=%d&uploadId=%s", objectURL, r.PartNumber(), uploadID)
		}, nil),
	}
	for i, chunk := range chunks {
		job.Parts = append(job.Parts, partx.Part{
			Number: uint32(i + 1),
			Flags:  request.RecordResponseHeaders,
			Body:   chunk,
		})
	}
	res, err := (&partx.Client{}).Do(ctx, job)
	...
	for _, p := range res.Parts {
		etags = append(etags, p.Header.Get("ETag"))
	}

The client keeps a bounded number of requests alive, sends their
attempts from a pool of workers, and retries failed attempts according
to a retry policy from package retry, resending exactly the same body.
Each attempt gets a timeout from a policy in package timeout.

To sign messages, set Job.Sign. To receive large response bodies part
by part instead of buffering them in the Result, create the parts with
request.StreamResponseBody and set Job.OnStream.

To observe requests as they go through their lifecycle, install
handlers, for example the structured logging handler:

	handlers := &partx.HandlerGroup{}
	handlers.PushBack(partx.BeforeRetry, partx.LogHandler(logger))
	client := &partx.Client{
		Handlers: handlers,
		Logger:   logger,
	}

A Client may also be configured from a YAML file with ReadConfigFile
and Config.NewClient.
*/
package partx
