package board

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>Tweets</title>
<style>
  body { font-family: Arial, sans-serif; max-width: 70%; margin: auto; }
  textarea { width: 100%; height: 120px; margin-top: 20px; padding: 8px; font-size: 16px; }
  button { padding: 8px 16px; font-size: 16px; margin-right: 5px; cursor: pointer; }
  .group { margin-top: 20px; }
  ul { list-style-type: none; padding-left: 0; }
  li { padding: 10px; background-color: #f4f4f4; margin-bottom: 5px; border-radius: 4px; }
</style>
</head>
<body>
<form id="tweetForm">
  <textarea id="tweetText" name="text" placeholder="What's happening?" required></textarea>
  <div class="group">
    <button type="submit" value="rpush">RPUSH (Bottom)</button>
    <button type="submit" value="lpush">LPUSH (Top)</button>
  </div>
</form>

<div class="group">
  <button id="rpopButton">RPOP (Bottom)</button>
  <button id="lpopButton">LPOP (Top)</button>
</div>

<h2>Tweets (<span id="tweetCount">0</span>)</h2>
<ul id="tweetList"></ul>

<script>
  const events = new EventSource("/events");
  events.onmessage = function () { updateTweetList(); };

  document.getElementById("tweetForm").addEventListener("submit", async function (event) {
    event.preventDefault();
    const body = new URLSearchParams();
    body.append("command", event.submitter.value);
    body.append("text", document.getElementById("tweetText").value.replace(/\r?\n/g, " "));
    const response = await fetch("/tweets", { method: "POST", body: body });
    if (response.ok) {
      document.getElementById("tweetText").value = "";
    } else {
      alert(await response.text());
    }
  });

  document.getElementById("rpopButton").addEventListener("click", function () {
    fetch("/tweets/last", { method: "DELETE" });
  });
  document.getElementById("lpopButton").addEventListener("click", function () {
    fetch("/tweets/first", { method: "DELETE" });
  });

  async function updateTweetList() {
    const response = await fetch("/tweets_list");
    if (!response.ok) {
      return;
    }
    const tweets = await response.json();
    const list = document.getElementById("tweetList");
    list.innerHTML = "";
    tweets.forEach(function (tweet) {
      const li = document.createElement("li");
      li.textContent = tweet;
      list.appendChild(li);
    });
    document.getElementById("tweetCount").textContent = tweets.length;
  }

  updateTweetList();
</script>
</body>
</html>
`
